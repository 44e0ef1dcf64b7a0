package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Info("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "verbose")

	l.Debug("debug line")
	l.Info("info line")

	out := buf.String()
	if strings.Contains(out, "debug line") {
		t.Error("debug written with fallback level")
	}
	if !strings.Contains(out, "info line") {
		t.Error("info missing with fallback level")
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	OrDiscard(nil).Error("goes nowhere")

	var buf bytes.Buffer
	l := New(&buf, "info")
	if OrDiscard(l) != l {
		t.Error("OrDiscard should return a non-nil logger unchanged")
	}
}

func TestOpenFileCreatesDatedLog(t *testing.T) {
	dir := t.TempDir()

	lf, err := OpenFile(dir, "debug")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	lf.Info("hello")
	if err := lf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "logs", "pokedex-*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one log file, got %v (%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"pokedex started", "hello", "shutting down"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log missing %q:\n%s", want, data)
		}
	}
}
