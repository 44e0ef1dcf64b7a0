// Package ui provides the Bubble Tea TUI for pokedex.
package ui

import "github.com/abelbrown/pokedex/internal/controller"

// SnapshotMsg carries a controller state change into the program.
type SnapshotMsg struct {
	controller.Snapshot
}
