package events_test

import (
	"sync"
	"testing"

	"github.com/lambda-feedback/watchdeck/internal/sidecar/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_Publish_DeliversToAllSubscribers(t *testing.T) {
	hub := events.NewHub(zap.NewNop())

	a := hub.Subscribe(4)
	b := hub.Subscribe(4)

	hub.Publish(events.Event{Seq: 1, Payload: `{"type":"ready"}`})

	assert.Equal(t, `{"type":"ready"}`, (<-a.C()).Payload)
	assert.Equal(t, `{"type":"ready"}`, (<-b.C()).Payload)

	stats := hub.Stats()
	assert.Equal(t, 2, stats.Subscribers)
	assert.Equal(t, uint64(1), stats.Published)
	assert.Equal(t, uint64(2), stats.Delivered)
	assert.Zero(t, stats.Dropped)
}

func TestHub_Publish_WithoutSubscribers_DiscardsEvent(t *testing.T) {
	hub := events.NewHub(zap.NewNop())

	hub.Publish(events.Event{Seq: 1, Payload: "x"})

	sub := hub.Subscribe(1)
	defer sub.Close()

	select {
	case evt := <-sub.C():
		t.Fatalf("late subscriber received %v", evt)
	default:
	}

	assert.Equal(t, uint64(1), hub.Stats().Published)
}

func TestHub_Publish_DropsWhenBufferFull(t *testing.T) {
	hub := events.NewHub(zap.NewNop())

	sub := hub.Subscribe(1)
	defer sub.Close()

	hub.Publish(events.Event{Seq: 1, Payload: "first"})
	hub.Publish(events.Event{Seq: 2, Payload: "second"})

	assert.Equal(t, "first", (<-sub.C()).Payload)
	assert.Equal(t, uint64(1), sub.Dropped())
	assert.Equal(t, uint64(1), hub.Stats().Dropped)
}

func TestHub_Publish_PreservesOrder(t *testing.T) {
	hub := events.NewHub(zap.NewNop())

	sub := hub.Subscribe(100)
	defer sub.Close()

	for i := 1; i <= 100; i++ {
		hub.Publish(events.Event{Seq: uint64(i)})
	}

	for i := 1; i <= 100; i++ {
		assert.Equal(t, uint64(i), (<-sub.C()).Seq)
	}
}

func TestSubscription_Close_ClosesChannel(t *testing.T) {
	hub := events.NewHub(zap.NewNop())

	sub := hub.Subscribe(1)
	sub.Close()
	sub.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.Zero(t, hub.Stats().Subscribers)

	// publishing after close must not panic
	hub.Publish(events.Event{Payload: "x"})
}

func TestHub_ConcurrentPublishAndClose(t *testing.T) {
	hub := events.NewHub(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)

		sub := hub.Subscribe(1)

		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				hub.Publish(events.Event{Seq: uint64(j)})
			}
		}()

		go func() {
			defer wg.Done()
			sub.Close()
		}()
	}

	wg.Wait()

	require.Zero(t, hub.Stats().Subscribers)
}
