// Package validation compares what a source file holds with what reached
// the destination after its migration.
package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/energyaudit/auditmig/internal/model"
	"github.com/energyaudit/auditmig/internal/source"
	"github.com/energyaudit/auditmig/internal/target"
)

// Overall and per-table outcomes.
const (
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusPartial = "PARTIAL"
)

// Result holds the outcome of post-migration validation.
type Result struct {
	Status      string        `json:"status"` // PASS, FAIL, PARTIAL
	Tables      []TableResult `json:"tables"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
}

// TableResult holds validation results for a single table.
type TableResult struct {
	Name          string         `json:"name"`
	RowCountCheck *RowCountCheck `json:"row_count_check,omitempty"`
	Status        string         `json:"status"` // PASS, FAIL
}

// Validator checks one migrated file against the destination. Destination
// rows are counted only for the buildings the file contains, so earlier
// files in the same run do not affect the result.
type Validator struct {
	Source source.Reader
	Target target.Writer
	// Dropped is the number of rows per table the migration left out on
	// purpose; they are subtracted from the expected count.
	Dropped  map[string]int
	Callback func(table string, passed bool)
}

// Validate runs the row count check for every migrated table.
func (v *Validator) Validate(ctx context.Context) (*Result, error) {
	result := &Result{StartedAt: time.Now()}

	codes, err := v.Source.BuildingCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source buildings: %w", err)
	}

	for _, table := range model.Tables {
		tr := TableResult{Name: table, Status: StatusPass}
		rc, err := v.validateRowCount(ctx, table, codes)
		if err != nil {
			return nil, err
		}
		tr.RowCountCheck = rc
		if !rc.Match {
			tr.Status = StatusFail
		}
		v.notify(table, rc.Match)
		result.Tables = append(result.Tables, tr)
	}

	result.CompletedAt = time.Now()
	result.Status = computeOverallStatus(result.Tables)
	return result, nil
}

// Failed returns the tables whose check did not pass.
func (r *Result) Failed() []TableResult {
	var out []TableResult
	for _, t := range r.Tables {
		if t.Status != StatusPass {
			out = append(out, t)
		}
	}
	return out
}

func (v *Validator) notify(table string, passed bool) {
	if v.Callback != nil {
		v.Callback(table, passed)
	}
}

func computeOverallStatus(tables []TableResult) string {
	if len(tables) == 0 {
		return StatusPass
	}
	failCount := 0
	for _, t := range tables {
		if t.Status == StatusFail {
			failCount++
		}
	}
	if failCount == 0 {
		return StatusPass
	}
	if failCount == len(tables) {
		return StatusFail
	}
	return StatusPartial
}
