package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
)

// eventRecord mirrors otel.Event for JSON decoding.
// We decode from JSONL rather than importing otel to keep this
// subcommand usable even if the event schema evolves.
type eventRecord struct {
	Time      time.Time      `json:"t"`
	Level     string         `json:"level"`
	Kind      string         `json:"kind"`
	Comp      string         `json:"comp"`
	SessionID string         `json:"session_id"`
	Gen       uint64         `json:"gen"`
	DurMs     float64        `json:"dur_ms"`
	Offset    int            `json:"offset"`
	Count     int            `json:"count"`
	Name      string         `json:"name"`
	Query     string         `json:"query"`
	Code      int            `json:"code"`
	Err       string         `json:"err"`
	Msg       string         `json:"msg"`
	Extra     map[string]any `json:"extra"`
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

// eventFilter selects events by the viewer flags. Empty fields match all.
type eventFilter struct {
	kind    string
	level   string
	comp    string
	session string
	name    string
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < levelRank(f.level) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.session != "" && !strings.HasPrefix(ev.SessionID, f.session) {
		return false
	}
	if f.name != "" && ev.Name != f.name {
		return false
	}
	return true
}

func runEvents(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.SetOutput(errOut)
	dataDir := dataDirFlag(fs)
	tail := fs.Int("tail", 50, "Number of recent lines to show")
	follow := fs.BoolP("follow", "f", false, "Follow mode (like tail -f)")
	var filt eventFilter
	fs.StringVar(&filt.kind, "kind", "", "Filter by event kind prefix (e.g. 'page')")
	fs.StringVar(&filt.level, "level", "", "Minimum level: debug, info, warn, error")
	fs.StringVar(&filt.comp, "comp", "", "Filter by component name")
	fs.StringVar(&filt.session, "session", "", "Filter by session ID prefix")
	fs.StringVar(&filt.name, "name", "", "Filter by record name")
	rawJSON := fs.Bool("json", false, "Output raw JSON lines")
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}

	cfg, err := loadConfig(fs, *dataDir)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	logPath := cfg.EventsPath()

	f, err := os.Open(logPath)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(errOut, "  Event log not found at %s\n", logPath)
			fmt.Fprintf(errOut, "  Run pokedex first to generate events.\n")
		}
		return 1
	}
	defer f.Close()

	format := func(l parsedLine) string {
		if *rawJSON {
			return string(l.raw)
		}
		return formatEvent(l.ev)
	}

	lines := readTailLines(f, *tail, filt.match)
	for _, l := range lines {
		fmt.Fprintln(out, format(l))
	}
	if !*follow {
		return 0
	}

	// Poll for new lines from the current offset.
	reader := bufio.NewReader(f)
	var partial []byte
	for {
		chunk, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				return 1
			}
			// Keep a half-written line until the writer finishes it.
			partial = append(partial, chunk...)
			select {
			case <-ctx.Done():
				return 0
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		line := trimLine(append(partial, chunk...))
		partial = nil
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if filt.match(ev) {
			fmt.Fprintln(out, format(parsedLine{ev: ev, raw: line}))
		}
	}
}

// formatEvent renders one event as a single human-readable line.
func formatEvent(ev eventRecord) string {
	ts := ev.Time.Format("15:04:05.000")
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-10s] %-16s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Gen > 0 {
		parts = append(parts, fmt.Sprintf("gen=%d", ev.Gen))
	}
	if strings.HasPrefix(ev.Kind, "page.") && ev.Kind != "page.skipped" {
		parts = append(parts, fmt.Sprintf("offset=%d", ev.Offset))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Name != "" {
		parts = append(parts, "name="+ev.Name)
	}
	if ev.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%q", ev.Query))
	}
	if ev.Code != 0 {
		parts = append(parts, fmt.Sprintf("http=%d", ev.Code))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}

	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads r and returns the last n lines matching the filter.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	if n <= 0 {
		return nil
	}
	scanner := bufio.NewScanner(r)
	// Allow large lines (some events may have big Extra maps)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	ring := make([]parsedLine, 0, n)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}
		// Copy raw since the scanner reuses its buffer.
		line := parsedLine{ev: ev, raw: append([]byte(nil), raw...)}

		if len(ring) < n {
			ring = append(ring, line)
		} else {
			copy(ring, ring[1:])
			ring[n-1] = line
		}
	}
	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
