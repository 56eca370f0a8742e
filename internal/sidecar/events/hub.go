// Package events fans worker output out to subscribers.
//
// Delivery is best-effort and at-most-once: Publish never blocks, and a
// subscriber whose buffer is full, or that is not subscribed at the time
// of publishing, misses the event. Slow subscribers therefore lose
// events instead of applying backpressure to the worker.
package events

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultBuffer is the subscription buffer used when none is given.
const DefaultBuffer = 64

// Event is a single line emitted by the worker on its stdout.
type Event struct {
	// Session identifies the worker spawn that emitted the event.
	Session string `json:"session"`

	// Seq is the 1-based position of the event within its session.
	Seq uint64 `json:"seq"`

	// Payload is the trimmed line, forwarded verbatim.
	Payload string `json:"payload"`
}

// Stats are the hub's delivery counters.
type Stats struct {
	Subscribers int    `json:"subscribers"`
	Published   uint64 `json:"published"`
	Delivered   uint64 `json:"delivered"`
	Dropped     uint64 `json:"dropped"`
}

type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64

	log *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		subs: make(map[*Subscription]struct{}),
		log:  log.Named("events"),
	}
}

// Subscribe registers a new subscriber. A buffer <= 0 uses DefaultBuffer.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	sub := &Subscription{
		hub: h,
		ch:  make(chan Event, buffer),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Publish offers evt to every current subscriber without blocking.
func (h *Hub) Publish(evt Event) {
	h.published.Add(1)

	// the read lock keeps Close from closing a channel mid-send
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.ch <- evt:
			h.delivered.Add(1)
		default:
			h.dropped.Add(1)
			sub.dropped.Add(1)
			h.log.Debug("subscriber buffer full, dropping event",
				zap.String("session", evt.Session),
				zap.Uint64("seq", evt.Seq),
			)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	subscribers := len(h.subs)
	h.mu.RUnlock()

	return Stats{
		Subscribers: subscribers,
		Published:   h.published.Load(),
		Delivered:   h.delivered.Load(),
		Dropped:     h.dropped.Load(),
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}

	delete(h.subs, sub)
	close(sub.ch)
}

// Subscription receives events published after it was created.
type Subscription struct {
	hub     *Hub
	ch      chan Event
	dropped atomic.Uint64
}

// C returns the event channel. It is closed by Close.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Dropped returns how many events this subscriber missed.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}
