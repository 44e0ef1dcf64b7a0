package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/pokedex/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing controller stats, recent
// problems and recent events. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Session Stats"))
	lines = append(lines, fmt.Sprintf("  Pages:      %d complete, %d errors, %d skipped",
		stats[otel.KindPageComplete], stats[otel.KindPageError], stats[otel.KindPageSkipped]))
	lines = append(lines, fmt.Sprintf("  Details:    %d complete, %d errors, %d stale",
		stats[otel.KindDetailComplete], stats[otel.KindDetailError], stats[otel.KindDetailStale]))
	lines = append(lines, fmt.Sprintf("  Cache:      %d hits, %d misses, %d errors",
		stats[otel.KindCacheHit], stats[otel.KindCacheMiss], stats[otel.KindCacheError]))
	lines = append(lines, fmt.Sprintf("  View:       %d recomputes, %d resets",
		stats[otel.KindViewRecompute], stats[otel.KindSessionReset]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	if problems := ring.Problems(5); len(problems) > 0 {
		lines = append(lines, DebugHeaderStyle.Render("Recent Problems"))
		for _, e := range problems {
			lines = append(lines, eventLine(e))
		}
		lines = append(lines, "")
	}

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range ring.Last(20) {
		lines = append(lines, eventLine(e))
	}

	// Subtract chrome added by DebugPanel border/padding.
	maxHeight := max(height-debugPanelChrome, 1)
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := min(76, width-4)
	panelWidth = max(panelWidth, 20)

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

func eventLine(e otel.Event) string {
	line := fmt.Sprintf("  %6s  %-16s", formatAge(time.Since(e.Time)), string(e.Kind))
	if e.Name != "" {
		line += "  " + truncateRunes(e.Name, 16)
	}
	if e.Kind == otel.KindPageStart || e.Kind == otel.KindPageComplete {
		line += fmt.Sprintf("  @%d", e.Offset)
	}
	if e.Code != 0 {
		line += fmt.Sprintf("  http:%d", e.Code)
	}
	if e.Msg != "" {
		line += "  " + truncateRunes(e.Msg, 30)
	}
	if e.Err != "" {
		line += "  ERR:" + truncateRunes(e.Err, 30)
	}
	return line
}

// formatAge formats a duration as a compact human string.
// Negative durations from clock skew clamp to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("d") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
