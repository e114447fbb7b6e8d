package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSetup_WritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, closer, err := Setup("debug", dir, 0, &console)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Debug("migrated file", "file", "12.db")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(console.String(), "file=12.db") {
		t.Errorf("console output missing record: %q", console.String())
	}
	name := "auditmig-" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "migrated file") {
		t.Errorf("log file missing record: %q", data)
	}
}

func TestSetup_LevelFilters(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := Setup("warn", t.TempDir(), 0, &console)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(console.String(), "hidden") || !strings.Contains(console.String(), "shown") {
		t.Errorf("unexpected output %q", console.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	files := []string{
		"auditmig-2026-01-01.log",
		"auditmig-2026-03-30.log",
		"auditmig-2026-03-31.log",
		"auditmig-notadate.log",
		"other-2020-01-01.log",
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := Prune(dir, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed %d files, want 1", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "auditmig-2026-01-01.log")); !os.IsNotExist(err) {
		t.Error("old log should be removed")
	}
	for _, f := range files[1:] {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("%s should be kept: %v", f, err)
		}
	}
}
