// Package report records the outcome of a run, file by file.
package report

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/energyaudit/auditmig/internal/migration"
	"github.com/energyaudit/auditmig/internal/validation"
)

// Outcome is what happened to one source file.
type Outcome string

const (
	OutcomeMigrated      Outcome = "migrated"
	OutcomeFailed        Outcome = "failed"
	OutcomePrepareFailed Outcome = "prepare_failed"
	OutcomeSkipped       Outcome = "skipped"
	// OutcomeNotAttempted marks a prepared file left untouched because the
	// run stopped before reaching it.
	OutcomeNotAttempted Outcome = "not_attempted"
)

// RunReport is the report of one run over a source directory.
type RunReport struct {
	Version     string       `json:"version"`
	RunID       string       `json:"run_id"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
	SourceDir   string       `json:"source_dir"`
	Destination string       `json:"destination"`
	Files       []FileReport `json:"files"`
	// Aborted is set when the operator stopped the run after a failure.
	Aborted bool `json:"aborted,omitempty"`
}

// FileReport is the outcome of one source file.
type FileReport struct {
	Name        string                 `json:"name"`
	Source      string                 `json:"source"`
	Outcome     Outcome                `json:"outcome"`
	Error       string                 `json:"error,omitempty"`
	Steps       []migration.StepResult `json:"steps,omitempty"`
	RoomsMapped int                    `json:"rooms_mapped,omitempty"`
	Written     int64                  `json:"written"`
	Dropped     int                    `json:"dropped,omitempty"`
	Duration    time.Duration          `json:"duration,omitempty"`
	Validation  *validation.Result     `json:"validation,omitempty"`
}

// New starts a report with a fresh run id. The destination is stored with
// its password masked.
func New(sourceDir, destination string) *RunReport {
	return &RunReport{
		Version:     "1",
		RunID:       uuid.NewString(),
		StartedAt:   time.Now(),
		SourceDir:   sourceDir,
		Destination: RedactDSN(destination),
	}
}

// Add appends a file outcome.
func (r *RunReport) Add(fr FileReport) {
	if fr.Name == "" {
		fr.Name = filepath.Base(fr.Source)
	}
	r.Files = append(r.Files, fr)
}

// FromResult builds the report of a file whose migration returned res and
// err.
func FromResult(src string, res *migration.Result, err error) FileReport {
	fr := FileReport{Name: filepath.Base(src), Source: src, Outcome: OutcomeMigrated}
	if res != nil {
		fr.Steps = res.Steps
		fr.RoomsMapped = res.RoomsMapped
		fr.Written = res.Written()
		fr.Dropped = res.Dropped()
		fr.Duration = res.Duration
	}
	if err != nil || res == nil || !res.Committed {
		fr.Outcome = OutcomeFailed
		// Nothing reached the destination for a rolled back file.
		fr.Written = 0
		if err != nil {
			fr.Error = err.Error()
		}
	}
	return fr
}

// Finish stamps the completion time.
func (r *RunReport) Finish() {
	r.CompletedAt = time.Now()
}

// Count returns how many files ended with outcome o.
func (r *RunReport) Count(o Outcome) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == o {
			n++
		}
	}
	return n
}

// Filter returns the files that ended with outcome o, in run order.
func (r *RunReport) Filter(o Outcome) []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Outcome == o {
			out = append(out, f)
		}
	}
	return out
}

// Written totals the rows written across all files.
func (r *RunReport) Written() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.Written
	}
	return n
}

// Success is true when every file either migrated or was skipped.
func (r *RunReport) Success() bool {
	return !r.Aborted && r.Count(OutcomeFailed) == 0 && r.Count(OutcomePrepareFailed) == 0
}

var dsnPassword = regexp.MustCompile(`(password=)(\S+)`)

// RedactDSN masks the password of a URL or key=value connection string.
func RedactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		return u.Redacted()
	}
	return dsnPassword.ReplaceAllString(dsn, "${1}xxxxx")
}

// Write saves the report in the format its extension names: .json, .xlsx
// or anything else as plain text.
func Write(r *RunReport, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return WriteJSON(r, path)
	case ".xlsx":
		return WriteXLSX(r, path)
	default:
		return WriteText(r, path)
	}
}

// WriteJSON writes the report as JSON.
func WriteJSON(r *RunReport, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON reads a report from a JSON file.
func ReadJSON(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	r := &RunReport{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return r, nil
}

// WriteText writes the report as human-readable text.
func WriteText(r *RunReport, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	return os.WriteFile(path, []byte(FormatText(r)), 0o644)
}

// FormatText renders the report as human-readable text.
func FormatText(r *RunReport) string {
	var b strings.Builder

	b.WriteString("=== auditmig Run Report ===\n")
	b.WriteString(fmt.Sprintf("Run:         %s\n", r.RunID))
	b.WriteString(fmt.Sprintf("Started:     %s\n", r.StartedAt.Format(time.RFC3339)))
	if !r.CompletedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Completed:   %s\n", r.CompletedAt.Format(time.RFC3339)))
	}
	b.WriteString(fmt.Sprintf("Source:      %s\n", r.SourceDir))
	b.WriteString(fmt.Sprintf("Destination: %s\n\n", r.Destination))

	b.WriteString(fmt.Sprintf("Files: %d migrated, %d failed, %d failed preparation, %d skipped, %d not attempted\n",
		r.Count(OutcomeMigrated), r.Count(OutcomeFailed), r.Count(OutcomePrepareFailed), r.Count(OutcomeSkipped), r.Count(OutcomeNotAttempted)))
	b.WriteString(fmt.Sprintf("Rows written: %d\n", r.Written()))
	if r.Aborted {
		b.WriteString("Run stopped by operator after a failure.\n")
	}
	b.WriteString("\n")

	for _, f := range r.Files {
		b.WriteString(fmt.Sprintf("  [%s] %s", strings.ToUpper(string(f.Outcome)), f.Name))
		if f.Outcome == OutcomeMigrated {
			b.WriteString(fmt.Sprintf(" (%d rows", f.Written))
			if f.Dropped > 0 {
				b.WriteString(fmt.Sprintf(", %d links dropped", f.Dropped))
			}
			b.WriteString(")")
		}
		b.WriteString("\n")
		if f.Error != "" {
			b.WriteString(fmt.Sprintf("      %s\n", f.Error))
		}
		if f.Validation != nil {
			b.WriteString(fmt.Sprintf("      validation: %s\n", f.Validation.Status))
			for _, t := range f.Validation.Failed() {
				if t.RowCountCheck != nil {
					b.WriteString(fmt.Sprintf("        %s: %s\n", t.Name, t.RowCountCheck.Message))
				}
			}
		}
	}

	if pending := r.Filter(OutcomeNotAttempted); len(pending) > 0 {
		b.WriteString("\nNot attempted:\n")
		for _, f := range pending {
			b.WriteString(fmt.Sprintf("  %s\n", f.Name))
		}
	}

	if failed := r.Filter(OutcomePrepareFailed); len(failed) > 0 {
		b.WriteString("\nFailed preparations:\n")
		for _, f := range failed {
			b.WriteString(fmt.Sprintf("  %s: %s\n", f.Name, f.Error))
		}
	}

	return b.String()
}
