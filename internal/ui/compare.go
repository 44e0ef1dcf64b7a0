package ui

import (
	"fmt"
	"strings"

	"github.com/abelbrown/pokedex/internal/model"
)

// RenderCompare renders a side-by-side stat comparison of a and b.
// The higher value in each row is highlighted; ties are left plain.
func RenderCompare(a, b model.Record, width int) string {
	rows := model.Compare(a, b)
	left, right := model.Tally(rows)

	var lines []string
	lines = append(lines, HeaderStyle.Render(fmt.Sprintf("%s vs %s", a.Name, b.Name)))
	lines = append(lines, fmt.Sprintf("%-16s %8s %8s", "", truncateRunes(a.TypeLabel(), 8), truncateRunes(b.TypeLabel(), 8)))

	for _, r := range rows {
		lv, rv := fmt.Sprintf("%8d", r.Left), fmt.Sprintf("%8d", r.Right)
		switch r.Winner {
		case model.Left:
			lv, rv = CompareWinner.Render(lv), CompareLoser.Render(rv)
		case model.Right:
			lv, rv = CompareLoser.Render(lv), CompareWinner.Render(rv)
		}
		diff := ""
		if d := r.Diff(); d != 0 {
			diff = fmt.Sprintf("  %+d", d)
		}
		lines = append(lines, fmt.Sprintf("%-16s %s %s%s", r.Stat.Label(), lv, rv, diff))
	}

	lines = append(lines, fmt.Sprintf("%-16s %8d %8d", "Total", a.Total(), b.Total()))
	lines = append(lines, "")
	lines = append(lines, compareVerdict(a.Name, b.Name, left, right))

	panelWidth := min(60, width-4)
	panelWidth = max(panelWidth, 30)
	return ComparePanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

func compareVerdict(a, b string, left, right int) string {
	switch {
	case left > right:
		return fmt.Sprintf("%s wins %d of %d stats", a, left, len(model.Stats))
	case right > left:
		return fmt.Sprintf("%s wins %d of %d stats", b, right, len(model.Stats))
	default:
		return fmt.Sprintf("even: %d stats each", left)
	}
}

// compareStatusBar renders the status bar shown under the compare panel.
func compareStatusBar(width int) string {
	keys := StatusBarKey.Render("esc") + StatusBarText.Render(":back")
	return StatusBar.Width(width).Render("  [COMPARE]  " + keys)
}
