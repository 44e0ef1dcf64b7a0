package filter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/abelbrown/pokedex/internal/model"
)

// Field is the kind of attribute a sort key reads.
type Field int

const (
	FieldName Field = iota + 1
	FieldType
	FieldStat
)

// Key names one sortable attribute. Stat is set only for FieldStat.
// Keys are comparable, so criteria can be matched with ==.
type Key struct {
	Field Field
	Stat  model.StatID
}

var (
	NameKey = Key{Field: FieldName}
	TypeKey = Key{Field: FieldType}
)

// StatKey returns the key for a numeric base stat.
func StatKey(id model.StatID) Key {
	return Key{Field: FieldStat, Stat: id}
}

// AllKeys lists every key in menu order: name, type, then the six stats.
func AllKeys() []Key {
	keys := []Key{NameKey, TypeKey}
	for _, id := range model.Stats {
		keys = append(keys, StatKey(id))
	}
	return keys
}

// String returns the flag form of the key ("name", "type", "special-attack").
func (k Key) String() string {
	switch k.Field {
	case FieldName:
		return "name"
	case FieldType:
		return "type"
	case FieldStat:
		return k.Stat.WireName()
	default:
		return fmt.Sprintf("key(%d)", int(k.Field))
	}
}

// Label returns a display name ("Name", "Type", "Special Attack").
func (k Key) Label() string {
	switch k.Field {
	case FieldName:
		return "Name"
	case FieldType:
		return "Type"
	case FieldStat:
		return k.Stat.Label()
	default:
		return k.String()
	}
}

// ParseKey accepts the String form of any key.
func ParseKey(s string) (Key, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "name":
		return NameKey, nil
	case "type", "category":
		return TypeKey, nil
	}
	if id, ok := model.ParseStatID(s); ok {
		return StatKey(id), nil
	}
	return Key{}, fmt.Errorf("unknown sort key %q", s)
}

// Criterion is one sort instruction.
type Criterion struct {
	Key       Key
	Ascending bool
}

// String renders the criterion as "key:asc" or "key:desc".
func (c Criterion) String() string {
	dir := "asc"
	if !c.Ascending {
		dir = "desc"
	}
	return c.Key.String() + ":" + dir
}

// Criteria is an ordered list of criteria; index 0 is primary.
type Criteria []Criterion

// String renders the list in ParseCriteria form.
func (cs Criteria) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// Find returns the criterion for key and whether it is present.
func (cs Criteria) Find(key Key) (Criterion, bool) {
	for _, c := range cs {
		if c.Key == key {
			return c, true
		}
	}
	return Criterion{}, false
}

// With returns a copy where any criterion for key is removed and a new one
// is appended at the lowest priority.
func (cs Criteria) With(key Key, ascending bool) Criteria {
	out := cs.Without(key)
	return append(out, Criterion{Key: key, Ascending: ascending})
}

// Toggled flips the direction of key in place if present; otherwise it
// appends key at the lowest priority with the given direction.
func (cs Criteria) Toggled(key Key, ascending bool) Criteria {
	out := make(Criteria, len(cs), len(cs)+1)
	copy(out, cs)
	for i := range out {
		if out[i].Key == key {
			out[i].Ascending = !out[i].Ascending
			return out
		}
	}
	return append(out, Criterion{Key: key, Ascending: ascending})
}

// Without returns a copy with every criterion for key removed.
func (cs Criteria) Without(key Key) Criteria {
	out := make(Criteria, 0, len(cs)+1)
	for _, c := range cs {
		if c.Key != key {
			out = append(out, c)
		}
	}
	return out
}

// Capped returns the newest max criteria, dropping the oldest ones first.
// A non-positive max means no cap.
func (cs Criteria) Capped(max int) Criteria {
	if max <= 0 || len(cs) <= max {
		return cs
	}
	out := make(Criteria, max)
	copy(out, cs[len(cs)-max:])
	return out
}

// ParseCriteria parses "hp:desc,name" into criteria.
// Direction defaults to ascending; a later entry for a key replaces an earlier one.
func ParseCriteria(s string) (Criteria, error) {
	var out Criteria
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, dir, _ := strings.Cut(part, ":")
		key, err := ParseKey(name)
		if err != nil {
			return nil, err
		}
		asc := true
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			asc = false
		default:
			return nil, fmt.Errorf("unknown sort direction %q for %s", dir, key)
		}
		out = out.With(key, asc)
	}
	return out, nil
}

// sortEntry caches the derived string keys so the comparator does not
// allocate per comparison.
type sortEntry struct {
	rec   model.Record
	name  string
	types string
}

// Compare orders a and b by criteria in priority order.
// Returns 0 when every criterion compares equal.
func Compare(a, b model.Record, criteria []Criterion) int {
	return compareEntries(newEntry(a), newEntry(b), criteria)
}

func newEntry(r model.Record) sortEntry {
	return sortEntry{rec: r, name: strings.ToLower(r.Name), types: r.TypeLabel()}
}

func compareEntries(a, b sortEntry, criteria []Criterion) int {
	for _, c := range criteria {
		var n int
		switch c.Key.Field {
		case FieldName:
			n = strings.Compare(a.name, b.name)
		case FieldType:
			n = strings.Compare(a.types, b.types)
		case FieldStat:
			n = cmp.Compare(a.rec.Stat(c.Key.Stat), b.rec.Stat(c.Key.Stat))
		}
		if n == 0 {
			continue
		}
		if !c.Ascending {
			n = -n
		}
		return n
	}
	return 0
}

// Sort returns records stably ordered by criteria.
// With no criteria the input is returned unchanged.
func Sort(records []model.Record, criteria []Criterion) []model.Record {
	if len(criteria) == 0 || len(records) < 2 {
		return records
	}

	entries := make([]sortEntry, len(records))
	for i, r := range records {
		entries[i] = newEntry(r)
	}

	slices.SortStableFunc(entries, func(a, b sortEntry) int {
		return compareEntries(a, b, criteria)
	})

	result := make([]model.Record, len(entries))
	for i, e := range entries {
		result[i] = e.rec
	}
	return result
}
