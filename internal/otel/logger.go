package otel

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// queueSize bounds the lines waiting for the writer goroutine.
const queueSize = 4096

// Logger appends events to w as JSONL from a single writer goroutine and
// mirrors every accepted event into an optional RingBuffer.
//
// Emit never blocks on I/O. The ring sees an event as soon as Emit returns;
// the file sees it once the writer catches up. Both see the same order.
//
// All methods are safe on a nil *Logger and do nothing, so components can
// take an optional event sink without nil checks at every call site.
type Logger struct {
	sessionID string
	w         io.Writer

	mu     sync.Mutex // guards ring and closed; held across the queue send
	ring   *RingBuffer
	queue  chan []byte
	closed bool

	dropped atomic.Uint64
	done    chan struct{}
}

// NewLogger starts a Logger writing to w. Call Close to flush and stop it.
func NewLogger(w io.Writer) *Logger {
	return newLogger(w, queueSize)
}

// NewNullLogger returns a Logger that writes nowhere but still feeds an
// attached ring buffer.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func newLogger(w io.Writer, size int) *Logger {
	var sid [8]byte
	_, _ = rand.Read(sid[:])

	l := &Logger{
		sessionID: hex.EncodeToString(sid[:]),
		w:         w,
		queue:     make(chan []byte, size),
		done:      make(chan struct{}),
	}
	go l.run()
	return l
}

// run drains the queue, writing whatever is already queued as one batch
// and flushing once per batch.
func (l *Logger) run() {
	defer close(l.done)

	bw := bufio.NewWriter(l.w)
	batch := 0
	lose := func(extra int) {
		l.dropped.Add(uint64(batch + extra))
		batch = 0
		bw.Reset(l.w)
	}
	write := func(line []byte) {
		if _, err := bw.Write(line); err != nil {
			lose(1)
			return
		}
		batch++
	}

	for line := range l.queue {
		write(line)
		for n := len(l.queue); n > 0; n-- {
			write(<-l.queue)
		}
		if err := bw.Flush(); err != nil {
			lose(0)
			continue
		}
		batch = 0
	}
}

// Emit stamps e with the session id (and the current time if unset) and
// queues it. Events that cannot be encoded, that arrive after Close, or
// that find the queue full are dropped and counted; a full queue still
// lets the event into the ring.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.sessionID

	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	if l.ring != nil {
		l.ring.Push(e)
	}
	select {
	case l.queue <- line:
	default:
		l.dropped.Add(1)
	}
}

// SessionID returns the random hex id stamped on every event.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// SetRingBuffer attaches (or with nil, detaches) the in-memory mirror.
func (l *Logger) SetRingBuffer(ring *RingBuffer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.ring = ring
	l.mu.Unlock()
}

// Dropped returns how many events never reached w.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close stops accepting events and waits until every queued line has been
// written. Safe to call more than once.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()
	<-l.done
}
