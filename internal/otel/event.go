// Package otel provides structured pipeline events for pokedex.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer keeps recent events in memory for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Pagination
	KindPageStart    EventKind = "page.start"
	KindPageComplete EventKind = "page.complete"
	KindPageError    EventKind = "page.error"
	KindPageSkipped  EventKind = "page.skipped"

	// Detail fan-out
	KindDetailComplete EventKind = "detail.complete"
	KindDetailError    EventKind = "detail.error"
	KindDetailStale    EventKind = "detail.stale"

	// Detail cache
	KindCacheHit   EventKind = "cache.hit"
	KindCacheMiss  EventKind = "cache.miss"
	KindCacheError EventKind = "cache.error"

	// View
	KindViewRecompute EventKind = "view.recompute"
	KindSessionReset  EventKind = "session.reset"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "controller", "fetch", "cache", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	Gen       uint64         `json:"gen,omitempty"`        // list session generation
	Dur       time.Duration  `json:"-"`                    // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"`     // computed from Dur at marshal time
	Offset    int            `json:"offset,omitempty"`
	Count     int            `json:"count,omitempty"`
	Name      string         `json:"name,omitempty"`
	Query     string         `json:"query,omitempty"`
	Code      int            `json:"code,omitempty"` // HTTP status for server errors
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
