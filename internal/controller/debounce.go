package controller

import (
	"sync"
	"time"
)

// DefaultDebounce is the infinite-scroll debounce window.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer collapses bursts of Trigger calls into one call of fn, made
// once window has passed without another Trigger.
//
// Stop cancels a pending call; after Stop, fn is never called again. The
// owning view must call Stop when it is torn down.
type Debouncer struct {
	window time.Duration
	fn     func()

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64 // identifies the armed timer
	stopped bool
}

// NewDebouncer creates a Debouncer. A non-positive window uses DefaultDebounce.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Debouncer{window: window, fn: fn}
}

// Trigger (re)arms the timer.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.window, func() { d.fire(seq) })
}

// fire runs fn unless the timer was superseded or stopped after it
// expired but before it got the lock.
func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Pending reports whether a call is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending call and disables the Debouncer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
