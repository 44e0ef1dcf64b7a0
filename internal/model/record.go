// Package model provides the data layer for the creature catalogue.
//
// List is the source of truth for one browsing session: it owns the
// summaries returned by list pages, the full records fetched per summary,
// and the pagination cursor. It never performs I/O.
//
// # Thread Safety
//
// List is safe for concurrent use. Accessors and Snapshot return copies, so
// callers may read the result while fetches keep merging.
package model

import "strings"

// Summary is the lightweight list-item representation returned by a page
// request. Name is the unique key; Locator is opaque and only meaningful to
// the detail fetcher.
type Summary struct {
	Name    string
	Locator string
}

// Record is the complete detail representation of one creature.
//
// Types is ordered by slot: Types[0] is the primary type. Stats holds base
// stat values keyed by StatID; a missing stat reads as zero.
type Record struct {
	ID     int
	Name   string
	Height int // decimeters
	Weight int // hectograms
	Stats  map[StatID]int
	Types  []string
	Sprite string
}

// Stat returns the base value for id, or 0 if the record lacks it.
func (r Record) Stat(id StatID) int {
	return r.Stats[id]
}

// TypeLabel joins the record's types in slot order ("fire,flying").
// A record with no types yields the empty string.
func (r Record) TypeLabel() string {
	return strings.Join(r.Types, ",")
}

// PrimaryType returns the slot 1 type, or "" if there is none.
func (r Record) PrimaryType() string {
	if len(r.Types) == 0 {
		return ""
	}
	return r.Types[0]
}

// Total returns the sum of all base stats.
func (r Record) Total() int {
	total := 0
	for _, v := range r.Stats {
		total += v
	}
	return total
}

// Cursor is the pagination position of a List.
//
// HasMore is false exactly when the most recently merged page held fewer
// than PageSize summaries. Total is the upstream count hint from the last
// page and is informational only.
type Cursor struct {
	Offset   int
	PageSize int
	HasMore  bool
	Total    int
}
