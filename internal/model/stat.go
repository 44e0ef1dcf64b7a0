package model

import "fmt"

// StatID identifies one of the six base stats.
// The wire name is decoded once at the fetch boundary so nothing past it
// compares raw API strings.
type StatID int

const (
	StatHP StatID = iota + 1
	StatAttack
	StatDefense
	StatSpecialAttack
	StatSpecialDefense
	StatSpeed
)

// Stats lists every StatID in canonical display order.
var Stats = []StatID{
	StatHP,
	StatAttack,
	StatDefense,
	StatSpecialAttack,
	StatSpecialDefense,
	StatSpeed,
}

var statWire = map[StatID]string{
	StatHP:             "hp",
	StatAttack:         "attack",
	StatDefense:        "defense",
	StatSpecialAttack:  "special-attack",
	StatSpecialDefense: "special-defense",
	StatSpeed:          "speed",
}

var statLabel = map[StatID]string{
	StatHP:             "HP",
	StatAttack:         "Attack",
	StatDefense:        "Defense",
	StatSpecialAttack:  "Special Attack",
	StatSpecialDefense: "Special Defense",
	StatSpeed:          "Speed",
}

var statShort = map[StatID]string{
	StatHP:             "HP",
	StatAttack:         "Atk",
	StatDefense:        "Def",
	StatSpecialAttack:  "SpA",
	StatSpecialDefense: "SpD",
	StatSpeed:          "Spe",
}

// WireName returns the API field name ("special-attack").
func (s StatID) WireName() string {
	return statWire[s]
}

// Label returns the human-readable name ("Special Attack").
func (s StatID) Label() string {
	if l, ok := statLabel[s]; ok {
		return l
	}
	return fmt.Sprintf("stat(%d)", int(s))
}

// Short returns a three-letter column header.
func (s StatID) Short() string {
	return statShort[s]
}

// String implements fmt.Stringer using the wire name.
func (s StatID) String() string {
	if w, ok := statWire[s]; ok {
		return w
	}
	return fmt.Sprintf("stat(%d)", int(s))
}

// Valid reports whether s is one of the known stats.
func (s StatID) Valid() bool {
	_, ok := statWire[s]
	return ok
}

// ParseStatID maps an API stat name to its StatID.
// Unknown names return false; callers drop those stats.
func ParseStatID(wire string) (StatID, bool) {
	for id, w := range statWire {
		if w == wire {
			return id, true
		}
	}
	return 0, false
}
