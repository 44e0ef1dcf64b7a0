// Package filter provides pure filter and sort functions for records.
// All functions are simple: []Record in, []Record out. No side effects,
// no I/O, and the input slice is never modified.
package filter

import (
	"fmt"
	"strings"

	"github.com/abelbrown/pokedex/internal/model"
)

// Mode selects which attribute a search query is matched against.
type Mode int

const (
	ByName Mode = iota
	ByCategory
)

// String returns the mode name used in flags and the status bar.
func (m Mode) String() string {
	switch m {
	case ByName:
		return "name"
	case ByCategory:
		return "type"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ByName {
		return ByCategory
	}
	return ByName
}

// ParseMode accepts "name" or "type" (also "category").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return ByName, nil
	case "type", "category":
		return ByCategory, nil
	default:
		return ByName, fmt.Errorf("unknown search mode %q (want name or type)", s)
	}
}

// Predicate is an active search: a mode plus a query string.
type Predicate struct {
	Mode  Mode
	Query string
}

// Empty reports whether the predicate matches everything.
func (p Predicate) Empty() bool {
	return p.Query == ""
}

// Match reports whether r satisfies the predicate.
// Comparison is a case-insensitive substring test.
func (p Predicate) Match(r model.Record) bool {
	if p.Query == "" {
		return true
	}
	return p.match(r, strings.ToLower(p.Query))
}

func (p Predicate) match(r model.Record, q string) bool {
	switch p.Mode {
	case ByCategory:
		for _, t := range r.Types {
			if strings.Contains(strings.ToLower(t), q) {
				return true
			}
		}
		return false
	default:
		return strings.Contains(strings.ToLower(r.Name), q)
	}
}

// Apply keeps records matching p, preserving input order.
// An empty query returns the input unchanged regardless of mode.
func Apply(records []model.Record, p Predicate) []model.Record {
	if p.Query == "" {
		return records
	}

	q := strings.ToLower(p.Query)
	result := make([]model.Record, 0, len(records))
	for _, r := range records {
		if p.match(r, q) {
			result = append(result, r)
		}
	}
	return result
}
