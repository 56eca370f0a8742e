package diag

import (
	"sync"
	"time"
)

// DefaultHistory is the recorder capacity used when none is given.
const DefaultHistory = 200

// Recorder keeps the most recent records in a ring buffer.
type Recorder struct {
	mu   sync.Mutex
	buf  []Record
	next int
	full bool
}

func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = DefaultHistory
	}
	return &Recorder{buf: make([]Record, size)}
}

func (r *Recorder) Report(rec Record) {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = rec
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// Records returns the retained records, oldest first.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		return append([]Record(nil), r.buf[:r.next]...)
	}

	out := make([]Record, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}
