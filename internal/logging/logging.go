package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/energyaudit/auditmig/internal/config"
)

const filePrefix = "auditmig-"

// Setup initializes a logger writing to console and to a daily file in
// directory. Log files older than retentionDays are removed; zero keeps
// them all. The returned closer flushes and closes the file.
func Setup(level, directory string, retentionDays int, console io.Writer) (*slog.Logger, io.Closer, error) {
	if directory == "" {
		directory = config.ExpandHome("~/.auditmig/logs/")
	} else {
		directory = config.ExpandHome(directory)
	}

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	now := time.Now()
	filename := fmt.Sprintf("%s%s.log", filePrefix, now.Format("2006-01-02"))
	logPath := filepath.Join(directory, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	writer := io.Writer(file)
	if console != nil {
		writer = io.MultiWriter(console, file)
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	logger := slog.New(handler)

	if retentionDays > 0 {
		removed, err := Prune(directory, now.AddDate(0, 0, -retentionDays))
		if err != nil {
			logger.Warn("pruning old log files", "error", err)
		} else if removed > 0 {
			logger.Debug("pruned old log files", "count", removed)
		}
	}

	return logger, file, nil
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Prune removes daily log files dated before cutoff.
func Prune(directory string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		day, err := time.ParseInLocation("2006-01-02",
			strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".log"), cutoff.Location())
		if err != nil {
			continue
		}
		if day.Before(cutoff.Truncate(24 * time.Hour)) {
			if err := os.Remove(filepath.Join(directory, name)); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
