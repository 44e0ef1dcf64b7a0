package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/pokedex/internal/controller"
	"github.com/abelbrown/pokedex/internal/filter"
	"github.com/abelbrown/pokedex/internal/model"
)

const (
	nameWidth = 14
	typeWidth = 17
	statWidth = 4
)

// marks holds the two records picked for comparison, by name.
type marks [2]string

func (m marks) label(name string) string {
	switch name {
	case "":
		return " "
	case m[0]:
		return "A"
	case m[1]:
		return "B"
	}
	return " "
}

// RenderHeader renders the column header, tagging sorted columns with
// their direction and priority ("HP↓1").
func RenderHeader(criteria filter.Criteria) string {
	tag := func(k filter.Key, label string, width int) string {
		for i, c := range criteria {
			if c.Key != k {
				continue
			}
			arrow := "↓"
			if c.Ascending {
				arrow = "↑"
			}
			mark := fmt.Sprintf("%s%d", arrow, i+1)
			return padRight(label, width-len([]rune(mark))) + SortMark.Render(mark)
		}
		return padRight(label, width)
	}

	var b strings.Builder
	b.WriteString("  #    ")
	b.WriteString(tag(filter.NameKey, "Name", nameWidth) + " ")
	b.WriteString(tag(filter.TypeKey, "Type", typeWidth) + " ")
	for _, id := range model.Stats {
		b.WriteString(tag(filter.StatKey(id), id.Short(), statWidth+2) + " ")
	}
	b.WriteString("Tot")
	return ColumnHeader.Render(b.String())
}

// RenderRow renders one record. Selected rows are drawn inverted.
func RenderRow(r model.Record, mark string, selected bool, width int) string {
	types := padRight(truncateRunes(r.TypeLabel(), typeWidth), typeWidth)

	var stats strings.Builder
	for _, id := range model.Stats {
		fmt.Fprintf(&stats, "%*d    ", statWidth-1, r.Stat(id))
	}

	head := fmt.Sprintf("%s %4d ", mark, r.ID)
	name := padRight(truncateRunes(r.Name, nameWidth), nameWidth)
	tail := fmt.Sprintf("%s%3d", stats.String(), r.Total())

	if selected {
		line := head + name + " " + types + " " + tail
		return SelectedRow.Width(width).Render(line)
	}
	if mark != " " {
		head = MarkBadge.Render(mark) + head[1:]
	}
	return NormalRow.Render(head+name+" ") + typeStyle(r.PrimaryType()).Render(types) + NormalRow.Render(" "+tail)
}

// RenderList renders the visible window of rows so the cursor stays on
// screen. height counts rows including the column header.
func RenderList(view []model.Record, cursor int, m marks, criteria filter.Criteria, width, height int) string {
	var b strings.Builder
	b.WriteString(RenderHeader(criteria))
	b.WriteString("\n")

	rows := height - 1
	if rows < 1 {
		return b.String()
	}
	if len(view) == 0 {
		b.WriteString(PendingRow.Render("  nothing to show yet"))
		b.WriteString("\n")
		return b.String()
	}

	start, end := window(len(view), cursor, rows)
	for i := start; i < end; i++ {
		r := view[i]
		b.WriteString(RenderRow(r, m.label(r.Name), i == cursor, width))
		b.WriteString("\n")
	}
	return b.String()
}

// window returns the [start, end) slice of n rows of which at most size
// fit, keeping cursor inside it.
func window(n, cursor, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	start = max(start, 0)
	start = min(start, n-size)
	return start, start + size
}

// RenderStatusBar renders the bottom bar: load state, counts and key hints.
func RenderStatusBar(snap controller.Snapshot, cursor int, spin string, width int) string {
	var state string
	switch snap.State {
	case controller.LoadingPage:
		state = spin + " loading page"
	case controller.Error:
		state = "error"
	default:
		if snap.Pending > 0 {
			state = fmt.Sprintf("%s %d details", spin, snap.Pending)
		} else if !snap.Cursor.HasMore {
			state = "end of list"
		} else {
			state = "idle"
		}
	}

	position := "0/0"
	if n := len(snap.View); n > 0 {
		position = fmt.Sprintf("%d/%d", cursor+1, n)
	}
	counts := fmt.Sprintf("%s  loaded %d", position, snap.Loaded)
	if snap.Cursor.Total > 0 {
		counts += fmt.Sprintf(" of %d", snap.Cursor.Total)
	}
	if !snap.Predicate.Empty() {
		counts += fmt.Sprintf("  %s:%q", snap.Predicate.Mode, snap.Predicate.Query)
	}

	hint := func(k, desc string) string {
		return StatusBarKey.Render(k) + StatusBarText.Render(":"+desc)
	}
	keys := strings.Join([]string{
		hint("/", "search"),
		hint("1-8", "sort"),
		hint("c", "mark"),
		hint("C", "compare"),
		hint("r", "refresh"),
		hint("q", "quit"),
	}, " ")

	return StatusBar.Width(width).Render(state + "  " + counts + "  " + keys)
}

// truncateRunes shortens s to at most n runes, ending in "…" when cut.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
