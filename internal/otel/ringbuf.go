package otel

import (
	"maps"
	"sync"
)

// DefaultRingSize is the capacity used when NewRingBuffer gets a non-positive size.
const DefaultRingSize = 512

// RingBuffer keeps the most recent events for the debug overlay.
// Safe for concurrent use.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []Event
	next  int // slot the next Push writes
	count int
}

// NewRingBuffer creates a ring buffer holding up to size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size)}
}

// Push appends e, evicting the oldest event once full. Extra is cloned so
// later writes by the emitter cannot change buffered history.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		e.Extra = maps.Clone(e.Extra)
	}
	r.mu.Lock()
	r.buf[r.next] = e
	r.next = (r.next + 1) % len(r.buf)
	r.count = min(r.count+1, len(r.buf))
	r.mu.Unlock()
}

// at returns the i-th buffered event, oldest first. Caller holds mu.
func (r *RingBuffer) at(i int) Event {
	oldest := (r.next - r.count + len(r.buf)) % len(r.buf)
	return r.buf[(oldest+i)%len(r.buf)]
}

// tail copies the newest n events in chronological order. Caller holds mu.
func (r *RingBuffer) tail(n int) []Event {
	n = min(n, r.count)
	if n <= 0 {
		return nil
	}
	out := make([]Event, n)
	skip := r.count - n
	for i := range out {
		out[i] = r.at(skip + i)
	}
	return out
}

// Snapshot returns every buffered event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tail(r.count)
}

// Last returns up to n of the newest events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tail(n)
}

// Problems returns up to n of the newest warn or error events, oldest first.
func (r *RingBuffer) Problems(n int) []Event {
	if n <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for i := r.count - 1; i >= 0 && len(out) < n; i-- {
		if e := r.at(i); e.Level == LevelWarn || e.Level == LevelError {
			out = append(out, e)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Len reports how many events are buffered.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap reports the buffer capacity.
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}

// Stats counts buffered events per kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[EventKind]int)
	for i := 0; i < r.count; i++ {
		counts[r.at(i).Kind]++
	}
	return counts
}
