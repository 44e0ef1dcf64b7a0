package model

import "sync"

// List accumulates summaries and records for one session.
//
// Summaries grow append-only in arrival order, which is the canonical order
// before any sort. Records are keyed by name and may arrive in any order;
// len(records) never exceeds len(summaries).
type List struct {
	mu        sync.RWMutex
	summaries []Summary
	index     map[string]int // name -> position in summaries
	records   map[string]Record
	cursor    Cursor
}

// NewList creates an empty List with the given page size.
// A non-positive pageSize is treated as 1.
func NewList(pageSize int) *List {
	if pageSize <= 0 {
		pageSize = 1
	}
	l := &List{}
	l.cursor.PageSize = pageSize
	l.resetLocked()
	return l
}

// Reset clears summaries, records and the cursor back to the initial state.
// Idempotent.
func (l *List) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked()
}

func (l *List) resetLocked() {
	l.summaries = nil
	l.index = make(map[string]int)
	l.records = make(map[string]Record)
	l.cursor = Cursor{PageSize: l.cursor.PageSize, HasMore: true}
}

// MergePage appends one fetched page and returns the summaries that were
// new to the list. It is MergeCounted with returned = len(page).
func (l *List) MergePage(page []Summary, pageSize, total int) []Summary {
	return l.MergeCounted(page, len(page), pageSize, total)
}

// MergeCounted appends page, where returned is how many upstream positions
// the page covered (it may exceed len(page) when the source skipped
// malformed entries).
//
// Offset advances by returned and HasMore becomes returned == pageSize.
// A summary whose name was already merged is counted toward the offset but
// not duplicated in the list, so with upstream duplicates Len() < Offset.
// Callers must not merge concurrently for the same session; the
// controller's page guard ensures that.
func (l *List) MergeCounted(page []Summary, returned, pageSize, total int) []Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	returned = max(returned, len(page))
	added := make([]Summary, 0, len(page))
	for _, s := range page {
		if _, dup := l.index[s.Name]; dup {
			continue
		}
		l.index[s.Name] = len(l.summaries)
		l.summaries = append(l.summaries, s)
		added = append(added, s)
	}

	if pageSize > 0 {
		l.cursor.PageSize = pageSize
	}
	l.cursor.Offset += returned
	l.cursor.HasMore = returned == pageSize
	l.cursor.Total = total
	return added
}

// AddRecord upserts a record by name.
//
// Returns false if no summary with that name has been merged; such records
// are not stored, which keeps len(records) <= len(summaries).
func (l *List) AddRecord(r Record) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.index[r.Name]; !ok {
		return false
	}
	l.records[r.Name] = r
	return true
}

// Cursor returns the current pagination cursor.
func (l *List) Cursor() Cursor {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cursor
}

// Len returns the number of summaries merged so far.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.summaries)
}

// Loaded returns the number of records received so far.
func (l *List) Loaded() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Summaries returns a copy of the summaries in arrival order.
func (l *List) Summaries() []Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Summary, len(l.summaries))
	copy(out, l.summaries)
	return out
}

// Record returns the record for name, if it has arrived.
func (l *List) Record(name string) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.records[name]
	return r, ok
}

// Records returns the arrived records in summary order.
// Summaries whose detail is still missing are skipped.
func (l *List) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.recordsLocked()
}

// State is a consistent copy of a List taken under a single lock.
type State struct {
	Cursor    Cursor
	Summaries int
	Records   []Record // summary order
}

// Snapshot returns the cursor, summary count and records together.
func (l *List) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return State{
		Cursor:    l.cursor,
		Summaries: len(l.summaries),
		Records:   l.recordsLocked(),
	}
}

func (l *List) recordsLocked() []Record {
	out := make([]Record, 0, len(l.records))
	for _, s := range l.summaries {
		if r, ok := l.records[s.Name]; ok {
			out = append(out, r)
		}
	}
	return out
}
