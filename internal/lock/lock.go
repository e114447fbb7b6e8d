// Package lock keeps two runs from writing the shared destination at once.
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/energyaudit/auditmig/internal/config"
)

const DefaultPath = "~/.auditmig/auditmig.lock"

// ErrHeld is matched by errors.Is when another run owns the lock.
var ErrHeld = errors.New("lock held by another run")

// HeldError names the process holding the lock.
type HeldError struct {
	PID int
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("another auditmig run is in progress (PID %d); only one migration can run at a time", e.PID)
}

func (e *HeldError) Is(target error) bool {
	return target == ErrHeld
}

// Acquire creates the lock file holding the current PID. The file is
// created exclusively; one left behind by a dead process, or holding no
// valid PID, is replaced. Acquiring a lock this process already owns
// succeeds.
func Acquire(path string) error {
	if path == "" {
		path = config.ExpandHome(DefaultPath)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	self := os.Getpid()
	for range 2 {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := f.WriteString(strconv.Itoa(self))
			return errors.Join(werr, f.Close())
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("creating lock file: %w", err)
		}

		pid, err := owner(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		switch {
		case pid == self:
			return nil
		case pid > 0 && isProcessRunning(pid):
			return &HeldError{PID: pid}
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing stale lock: %w", err)
		}
	}
	return fmt.Errorf("acquiring %s: another run created it concurrently", path)
}

// Release removes the lock file.
func Release(path string) error {
	if path == "" {
		path = config.ExpandHome(DefaultPath)
	}
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// IsHeld reports whether a running process owns the lock, and its PID.
func IsHeld(path string) (bool, int, error) {
	if path == "" {
		path = config.ExpandHome(DefaultPath)
	}
	pid, err := owner(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	return pid > 0 && isProcessRunning(pid), pid, nil
}

// owner returns the PID written in the lock file, or 0 if it holds none.
func owner(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, nil
	}
	return pid, nil
}

func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
