package reload

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of triggers into one callback, fired once
// no trigger arrived for interval.
type debouncer struct {
	interval time.Duration
	callback func()

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(interval time.Duration, callback func()) *debouncer {
	return &debouncer{
		interval: interval,
		callback: callback,
	}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, d.callback)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
