// Package engine drives a run over a directory of survey files: discovery,
// preparation, per-file migration into the shared destination and the
// operator decision after a failure.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/energyaudit/auditmig/internal/config"
	"github.com/energyaudit/auditmig/internal/discovery"
	"github.com/energyaudit/auditmig/internal/drivers"
	"github.com/energyaudit/auditmig/internal/migration"
	"github.com/energyaudit/auditmig/internal/model"
	"github.com/energyaudit/auditmig/internal/prepare"
	"github.com/energyaudit/auditmig/internal/prompt"
	"github.com/energyaudit/auditmig/internal/report"
	"github.com/energyaudit/auditmig/internal/source"
	"github.com/energyaudit/auditmig/internal/state"
	"github.com/energyaudit/auditmig/internal/target"
	"github.com/energyaudit/auditmig/internal/validation"
)

// ErrSourceDirMissing is returned when the source directory does not exist.
var ErrSourceDirMissing = errors.New("source directory does not exist")

// Migrator moves one opened source into the destination.
type Migrator interface {
	Migrate(ctx context.Context, src, dst drivers.Conn) (*migration.Result, error)
}

// OpenFunc opens a prepared working copy.
type OpenFunc func(ctx context.Context, path string) (drivers.Conn, error)

// ValidateFunc checks a migrated file against the destination. dropped holds
// the rows per table the migration left out on purpose.
type ValidateFunc func(ctx context.Context, src, dst drivers.Conn, dropped map[string]int) (*validation.Result, error)

// Engine is the multi-source driver shared by the CLI commands.
type Engine struct {
	Config   *config.Config
	State    *state.State
	Logger   *slog.Logger
	Prompter prompt.Prompter
	Migrator Migrator
	// Destination names the destination in the report. Empty means the
	// configured connection string.
	Destination string

	OpenSource OpenFunc
	Validate   ValidateFunc
	// FileCallback is called once per file as soon as its outcome is known.
	FileCallback func(fr report.FileReport)

	statePath string
}

// New creates an Engine with the production migrator, SQLite opener and
// row-count validation. The prompter is left to the caller.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := migration.New(migration.Options{CollectViolations: cfg.Migration.CollectViolations}, logger)
	return &Engine{
		Config:     cfg,
		Logger:     logger,
		Migrator:   m,
		OpenSource: openSQLite,
		Validate:   validateRowCounts,
		statePath:  config.ExpandHome(state.DefaultPath),
	}
}

// SetStatePath overrides where the per-file state is kept.
func (e *Engine) SetStatePath(path string) {
	e.statePath = path
}

// LoadState loads the per-file state from disk.
func (e *Engine) LoadState() (*state.State, error) {
	st, err := state.Load(e.statePath)
	if err != nil {
		return nil, err
	}
	e.State = st
	return st, nil
}

// SaveState persists the current per-file state to disk.
func (e *Engine) SaveState() error {
	if e.State == nil {
		return fmt.Errorf("no state to save")
	}
	return e.State.Save(e.statePath)
}

// SourceDir resolves the source directory and checks that it exists.
func (e *Engine) SourceDir() (string, error) {
	dir, err := e.Config.SourceDir()
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrSourceDirMissing, dir)
		}
		return "", fmt.Errorf("checking source directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("source path %s is not a directory", dir)
	}
	return dir, nil
}

// Discover scans the source directory for candidate files.
func (e *Engine) Discover() (*discovery.Result, error) {
	dir, err := e.SourceDir()
	if err != nil {
		return nil, err
	}
	res, err := discovery.Scan(dir)
	if err != nil {
		return nil, err
	}
	for _, s := range res.Skipped {
		e.Logger.Debug("ignoring directory entry", "name", s.Name, "reason", s.Reason)
	}
	return res, nil
}

// Prepare copies the sources into the working directory and normalizes
// them. Failures are logged together once every file has been tried.
func (e *Engine) Prepare(ctx context.Context, dir string, sources []string) ([]prepare.Prepared, []*prepare.Error) {
	p := prepare.New(dir, e.Config.Source.Script, e.Logger)
	prepared, failures := p.PrepareAll(ctx, sources)
	if len(failures) > 0 {
		e.Logger.Error("some files could not be prepared", "failed", len(failures), "prepared", len(prepared))
		for _, f := range failures {
			e.Logger.Error("preparation failed", "file", filepath.Base(f.Source), "stage", f.Stage, "error", f.Err)
		}
	}
	return prepared, failures
}

// Run migrates every candidate in the source directory into dst. The
// returned report is complete up to the point the run stopped, also when an
// error is returned.
func (e *Engine) Run(ctx context.Context, dst drivers.Conn) (*report.RunReport, error) {
	dir, err := e.SourceDir()
	if err != nil {
		return nil, err
	}
	if e.State == nil {
		if _, err := e.LoadState(); err != nil {
			return nil, fmt.Errorf("loading state: %w", err)
		}
	}

	dest := e.Destination
	if dest == "" {
		dest = e.Config.ConnectionString()
	}
	rep := report.New(dir, dest)
	defer rep.Finish()

	found, err := e.Discover()
	if err != nil {
		return rep, err
	}
	e.Logger.Info("discovered source files", "dir", dir, "count", len(found.Candidates))

	var pending []string
	for _, path := range found.Paths() {
		if e.Config.Migration.Resume && e.State.IsMigrated(path) {
			e.Logger.Info("skipping file already migrated", "file", filepath.Base(path))
			e.record(rep, report.FileReport{Source: path, Outcome: report.OutcomeSkipped})
			continue
		}
		pending = append(pending, path)
	}
	if len(pending) == 0 {
		e.Logger.Info("nothing to migrate")
		return rep, e.finish(rep)
	}

	prepared, failures := e.Prepare(ctx, dir, pending)
	for _, f := range failures {
		e.record(rep, report.FileReport{
			Source:  f.Source,
			Outcome: report.OutcomePrepareFailed,
			Error:   f.Error(),
		})
	}
	if err := ctx.Err(); err != nil {
		rep.Aborted = true
		return rep, errors.Join(err, e.finish(rep))
	}

	for i, p := range prepared {
		if err := ctx.Err(); err != nil {
			rep.Aborted = true
			e.notAttempted(rep, prepared[i:])
			return rep, errors.Join(err, e.finish(rep))
		}

		fr := e.migrateFile(ctx, p, dst)
		e.record(rep, fr)
		if fr.Outcome != report.OutcomeFailed {
			continue
		}

		rest := prepared[i+1:]
		goOn, err := e.shouldContinue(ctx, fr)
		if err != nil {
			rep.Aborted = true
			e.notAttempted(rep, rest)
			return rep, errors.Join(err, e.finish(rep))
		}
		if !goOn {
			e.Logger.Warn("run stopped after failure", "file", fr.Name, "not_attempted", len(rest))
			rep.Aborted = true
			e.notAttempted(rep, rest)
			break
		}
	}

	return rep, e.finish(rep)
}

func (e *Engine) migrateFile(ctx context.Context, p prepare.Prepared, dst drivers.Conn) report.FileReport {
	name := filepath.Base(p.Source)
	log := e.Logger.With("file", name)
	log.Info("migrating file")

	src, err := e.OpenSource(ctx, p.Path)
	if err != nil {
		log.Error("opening prepared copy failed", "error", err)
		return report.FromResult(p.Source, nil, err)
	}
	defer src.Close()

	res, err := e.Migrator.Migrate(ctx, src, dst)
	fr := report.FromResult(p.Source, res, err)
	if fr.Outcome == report.OutcomeFailed {
		log.Error("migration failed", "error", fr.Error)
		return fr
	}
	log.Info("file migrated", "rows", fr.Written, "rooms", fr.RoomsMapped, "dropped", fr.Dropped, "duration", fr.Duration)

	if e.Config.Migration.Validate && e.Validate != nil {
		dropped := map[string]int{model.TableRoomOpening: fr.Dropped}
		vr, err := e.Validate(ctx, src, dst, dropped)
		switch {
		case err != nil:
			log.Warn("validation could not run", "error", err)
		case vr.Status != validation.StatusPass:
			for _, t := range vr.Failed() {
				log.Warn("row count mismatch", "table", t.Name, "detail", t.RowCountCheck.Message)
			}
		default:
			log.Debug("validation passed")
		}
		fr.Validation = vr
	}
	return fr
}

// shouldContinue applies the failure policy after fr failed.
func (e *Engine) shouldContinue(ctx context.Context, fr report.FileReport) (bool, error) {
	switch e.Config.Migration.OnFailure {
	case config.OnFailureContinue:
		return true, nil
	case config.OnFailureAbort:
		return false, nil
	}
	if e.Prompter == nil {
		return false, nil
	}
	return e.Prompter.Continue(ctx, fr.Name, errors.New(fr.Error))
}

// notAttempted records the prepared files a stopped run never reached.
func (e *Engine) notAttempted(rep *report.RunReport, rest []prepare.Prepared) {
	for _, p := range rest {
		e.Logger.Info("file not attempted", "file", filepath.Base(p.Source))
		e.record(rep, report.FileReport{Source: p.Source, Outcome: report.OutcomeNotAttempted})
	}
}

func (e *Engine) record(rep *report.RunReport, fr report.FileReport) {
	rep.Add(fr)
	fr = rep.Files[len(rep.Files)-1]

	// A file migrated by an earlier run keeps that status until it is tried
	// again.
	keep := fr.Outcome == report.OutcomeNotAttempted && e.State.IsMigrated(fr.Name)
	if fr.Outcome != report.OutcomeSkipped && !keep {
		fs := state.FileState{
			RunID:   rep.RunID,
			Rows:    fr.Written,
			Dropped: fr.Dropped,
			Error:   fr.Error,
		}
		switch fr.Outcome {
		case report.OutcomeMigrated:
			fs.Status = state.StatusMigrated
		case report.OutcomePrepareFailed:
			fs.Status = state.StatusPrepareFailed
		case report.OutcomeNotAttempted:
			fs.Status = state.StatusNotAttempted
		default:
			fs.Status = state.StatusFailed
		}
		e.State.Record(fr.Name, fs)
	}

	if e.FileCallback != nil {
		e.FileCallback(fr)
	}
}

func (e *Engine) finish(rep *report.RunReport) error {
	e.Logger.Info("run finished",
		"run_id", rep.RunID,
		"migrated", rep.Count(report.OutcomeMigrated),
		"failed", rep.Count(report.OutcomeFailed),
		"prepare_failed", rep.Count(report.OutcomePrepareFailed),
		"skipped", rep.Count(report.OutcomeSkipped),
		"not_attempted", rep.Count(report.OutcomeNotAttempted),
		"aborted", rep.Aborted)

	e.State.LastRunID = rep.RunID
	if err := e.SaveState(); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

func openSQLite(ctx context.Context, path string) (drivers.Conn, error) {
	db, err := drivers.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func validateRowCounts(ctx context.Context, src, dst drivers.Conn, dropped map[string]int) (*validation.Result, error) {
	from, okSrc := src.(*drivers.SQLite)
	to, okDst := dst.(*drivers.Postgres)
	if !okSrc || !okDst {
		return nil, &migration.UnsupportedMigrationError{From: drivers.KindOf(src), To: drivers.KindOf(dst)}
	}
	v := &validation.Validator{
		Source:  source.NewSQLiteReader(from.DB),
		Target:  target.NewPostgresWriter(to.Pool),
		Dropped: dropped,
	}
	return v.Validate(ctx)
}
