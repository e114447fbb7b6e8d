// Package rollback removes a migrated survey from the destination so it
// can be corrected and migrated again.
package rollback

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/energyaudit/auditmig/internal/source"
	"github.com/energyaudit/auditmig/internal/state"
	"github.com/energyaudit/auditmig/internal/target"
)

// Rollback deletes the rows a survey file contributed to the destination.
type Rollback struct {
	target target.Writer
	state  *state.State
	logger *slog.Logger
}

// Options controls what gets rolled back.
type Options struct {
	// DryRun lists the buildings without deleting anything.
	DryRun bool
	// Force rolls back files the state does not record as migrated.
	Force bool
}

// Result holds the outcome of rolling back one file.
type Result struct {
	File      string           `yaml:"file" json:"file"`
	Buildings []string         `yaml:"buildings" json:"buildings"`
	Deleted   map[string]int64 `yaml:"deleted,omitempty" json:"deleted,omitempty"`
	DryRun    bool             `yaml:"dry_run,omitempty" json:"dry_run,omitempty"`
}

// Total returns the number of rows deleted across all tables.
func (r *Result) Total() int64 {
	var n int64
	for _, c := range r.Deleted {
		n += c
	}
	return n
}

// New creates a new Rollback. st may be nil when no state is kept.
func New(tgt target.Writer, st *state.State, logger *slog.Logger) *Rollback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rollback{target: tgt, state: st, logger: logger}
}

// Execute removes every building found in src, and the rows depending on
// them, from the destination. file names the survey in the state.
func (r *Rollback) Execute(ctx context.Context, file string, src source.Reader, opts Options) (*Result, error) {
	name := filepath.Base(file)
	if r.state != nil && !opts.Force && !r.state.IsMigrated(name) {
		return nil, fmt.Errorf("%s is not recorded as migrated (use --force to roll back anyway)", name)
	}

	codes, err := src.BuildingCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing buildings of %s: %w", name, err)
	}
	result := &Result{File: name, Buildings: codes, DryRun: opts.DryRun}
	if len(codes) == 0 || opts.DryRun {
		return result, nil
	}

	deleted, err := r.target.DeleteByBuilding(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("rolling back %s: %w", name, err)
	}
	result.Deleted = deleted
	r.logger.Info("rolled back file", "file", name, "buildings", len(codes), "rows", result.Total())

	if r.state != nil {
		r.state.Record(name, state.FileState{Status: state.StatusRolledBack})
	}
	return result, nil
}
