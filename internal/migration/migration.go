// Package migration moves one source file's dataset into the destination in
// foreign-key order, remapping room ids on the way.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/energyaudit/auditmig/internal/drivers"
	"github.com/energyaudit/auditmig/internal/normalize"
	"github.com/energyaudit/auditmig/internal/remap"
	"github.com/energyaudit/auditmig/internal/source"
	"github.com/energyaudit/auditmig/internal/target"
)

// ErrUnsupportedMigration is returned for any pairing other than a SQLite
// source and a PostgreSQL destination.
var ErrUnsupportedMigration = errors.New("unsupported migration")

// UnsupportedMigrationError names the rejected direction.
type UnsupportedMigrationError struct {
	From drivers.Kind
	To   drivers.Kind
}

func (e *UnsupportedMigrationError) Error() string {
	return fmt.Sprintf("unsupported migration from %s to %s (only sqlite to postgres)", e.From, e.To)
}

func (e *UnsupportedMigrationError) Is(target error) bool {
	return target == ErrUnsupportedMigration
}

// StepError wraps the failure of one entity step.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("migrating %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Options tunes how a file is migrated.
type Options struct {
	// CollectViolations reports every invalid vocabulary value of a step
	// at once instead of stopping at the first one.
	CollectViolations bool
}

// StepCallback is called after each step completes.
type StepCallback func(result StepResult)

// Migrator runs the six entity steps for one source at a time.
type Migrator struct {
	Options  Options
	Logger   *slog.Logger
	Callback StepCallback
}

// New creates a Migrator.
func New(opts Options, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{Options: opts, Logger: logger}
}

// Migrate checks the direction and runs the migration from a SQLite source
// into a PostgreSQL destination. An unsupported pairing fails before either
// connection is used.
func (m *Migrator) Migrate(ctx context.Context, src, dst drivers.Conn) (*Result, error) {
	from, okSrc := src.(*drivers.SQLite)
	to, okDst := dst.(*drivers.Postgres)
	if !okSrc || !okDst || from == nil || to == nil {
		return nil, &UnsupportedMigrationError{From: drivers.KindOf(src), To: drivers.KindOf(dst)}
	}

	res, err := m.Run(ctx, source.NewSQLiteReader(from.DB), target.NewPostgresWriter(to.Pool))
	if res != nil {
		res.Source = from.Path
	}
	return res, err
}

// Run migrates everything r yields into one transaction on w. Steps run in
// dependency order; the first failure rolls the whole file back.
func (m *Migrator) Run(ctx context.Context, r source.Reader, w target.Writer) (*Result, error) {
	start := time.Now()
	res := &Result{}

	tx, err := w.Begin(ctx)
	if err != nil {
		return res, err
	}

	collector := func() *normalize.Collector {
		return &normalize.Collector{FailFast: !m.Options.CollectViolations}
	}
	rooms := remap.New()

	steps := []struct {
		step Step
		run  func() (StepResult, error)
	}{
		{StepBuilding, func() (StepResult, error) { return migrateBuildings(ctx, r, tx) }},
		{StepOpening, func() (StepResult, error) { return migrateOpenings(ctx, r, tx, collector()) }},
		{StepRoom, func() (StepResult, error) { return migrateRooms(ctx, r, tx, collector(), rooms) }},
		{StepRoomOpening, func() (StepResult, error) { return migrateRoomOpenings(ctx, r, tx, rooms) }},
		{StepSolarPanel, func() (StepResult, error) { return migrateSolarPanels(ctx, r, tx) }},
		{StepUtility, func() (StepResult, error) { return migrateUtilities(ctx, r, tx, collector()) }},
	}

	for _, s := range steps {
		sr, err := s.run()
		sr.Step = s.step
		if err != nil {
			m.rollback(ctx, tx)
			res.Duration = time.Since(start)
			return res, &StepError{Step: s.step, Err: err}
		}
		res.Steps = append(res.Steps, sr)
		if s.step == StepRoom {
			res.RoomsMapped = rooms.Len()
		}
		if sr.Dropped > 0 {
			m.Logger.Warn("dropped room openings referencing unmigrated rooms",
				"count", sr.Dropped)
		}
		m.Logger.Debug("step complete", "step", s.step, "read", sr.Read, "written", sr.Written)
		if m.Callback != nil {
			m.Callback(sr)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		m.rollback(ctx, tx)
		res.Duration = time.Since(start)
		return res, err
	}
	res.Committed = true
	res.Duration = time.Since(start)
	return res, nil
}

func (m *Migrator) rollback(ctx context.Context, tx target.Tx) {
	// The caller's context may already be cancelled; rollback must still run.
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		m.Logger.Error("rollback failed", "error", err)
	}
}
