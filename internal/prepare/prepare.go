// Package prepare makes working copies of source files and brings each copy
// to the expected layout by running the normalization script against it.
package prepare

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// WorkDirName is the subdirectory of the source directory holding copies.
const WorkDirName = "migrations"

// Stage names where preparing a file failed.
type Stage string

const (
	StageScript Stage = "script"
	StageCopy   Stage = "copy"
	StageApply  Stage = "apply"
)

// Error reports a file that could not be prepared.
type Error struct {
	Source string
	Stage  Stage
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("preparing %s (%s): %v", filepath.Base(e.Source), e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Prepared pairs an original file with its ready working copy.
type Prepared struct {
	Source string
	Path   string
}

// Preparer copies files into WorkDir and runs Script against each copy.
type Preparer struct {
	WorkDir string
	Script  string
	Logger  *slog.Logger
}

// New creates a Preparer whose working copies live under
// <sourceDir>/migrations.
func New(sourceDir, script string, logger *slog.Logger) *Preparer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preparer{
		WorkDir: filepath.Join(sourceDir, WorkDirName),
		Script:  script,
		Logger:  logger,
	}
}

// LoadScript reads the normalization script.
func (p *Preparer) LoadScript() (string, error) {
	data, err := os.ReadFile(p.Script)
	if err != nil {
		return "", fmt.Errorf("reading normalization script: %w", err)
	}
	return string(data), nil
}

// PrepareAll prepares every source. A file that fails is reported and left
// out; it never stops the others. If the script cannot be read every file
// fails.
func (p *Preparer) PrepareAll(ctx context.Context, sources []string) ([]Prepared, []*Error) {
	script, err := p.LoadScript()
	if err != nil {
		failures := make([]*Error, len(sources))
		for i, src := range sources {
			failures[i] = &Error{Source: src, Stage: StageScript, Err: err}
		}
		return nil, failures
	}

	if err := os.MkdirAll(p.WorkDir, 0o755); err != nil {
		failures := make([]*Error, len(sources))
		for i, src := range sources {
			failures[i] = &Error{Source: src, Stage: StageCopy, Err: err}
		}
		return nil, failures
	}

	var (
		prepared []Prepared
		failures []*Error
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			failures = append(failures, &Error{Source: src, Stage: StageCopy, Err: err})
			continue
		}
		path, err := p.Prepare(ctx, src, script)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		p.Logger.Debug("prepared source file", "source", src, "copy", path)
		prepared = append(prepared, Prepared{Source: src, Path: path})
	}
	return prepared, failures
}

// Prepare copies src into the working directory and applies script to the
// copy. The original file is never opened for writing.
func (p *Preparer) Prepare(ctx context.Context, src, script string) (string, *Error) {
	dst := filepath.Join(p.WorkDir, filepath.Base(src))
	if err := copyFile(src, dst); err != nil {
		return "", &Error{Source: src, Stage: StageCopy, Err: err}
	}
	if err := Apply(ctx, dst, script); err != nil {
		return "", &Error{Source: src, Stage: StageApply, Err: err}
	}
	return dst, nil
}

// Apply runs script against the SQLite file at path in one transaction.
func Apply(ctx context.Context, path, script string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		tx.Rollback()
		return fmt.Errorf("executing script: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing script: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
