// Package discovery finds the per-building SQLite files waiting to be
// migrated.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Extension is the file extension of a source database.
const Extension = ".db"

// Candidate is a source file accepted for migration.
type Candidate struct {
	// Number is the numeric file stem, usually the building dossier.
	Number uint64
	Name   string
	Path   string
	Size   int64
}

// Skipped is a directory entry that was not accepted, with the reason.
type Skipped struct {
	Name   string
	Reason string
}

// Result lists what a directory scan found.
type Result struct {
	Dir        string
	Candidates []Candidate
	Skipped    []Skipped
}

// Paths returns the candidate paths in migration order.
func (r *Result) Paths() []string {
	out := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.Path
	}
	return out
}

// IsCandidate applies the file-name rules: a ".db" extension, no leading
// dot, no "backup" anywhere in the name, and a stem that is an unsigned
// integer. It returns the parsed stem.
func IsCandidate(name string) (uint64, bool) {
	n, reason := check(name)
	return n, reason == ""
}

func check(name string) (uint64, string) {
	if strings.HasPrefix(name, ".") {
		return 0, "hidden file"
	}
	if filepath.Ext(name) != Extension {
		return 0, "not a " + Extension + " file"
	}
	if strings.Contains(name, "backup") {
		return 0, "backup file"
	}
	n, err := strconv.ParseUint(strings.TrimSuffix(name, Extension), 10, 64)
	if err != nil {
		return 0, "name is not a number"
	}
	return n, ""
}

// Scan lists dir (non-recursively) and sorts the accepted files by their
// numeric stem.
func Scan(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory: %w", err)
	}

	res := &Result{Dir: dir}
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() {
			if !e.IsDir() {
				res.Skipped = append(res.Skipped, Skipped{Name: name, Reason: "not a regular file"})
			}
			continue
		}
		n, reason := check(name)
		if reason != "" {
			res.Skipped = append(res.Skipped, Skipped{Name: name, Reason: reason})
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		res.Candidates = append(res.Candidates, Candidate{
			Number: n,
			Name:   name,
			Path:   filepath.Join(dir, name),
			Size:   size,
		})
	}

	sort.SliceStable(res.Candidates, func(i, j int) bool {
		return res.Candidates[i].Number < res.Candidates[j].Number
	})
	return res, nil
}

// Candidates returns the paths of the accepted files in dir.
func Candidates(dir string) ([]string, error) {
	res, err := Scan(dir)
	if err != nil {
		return nil, err
	}
	return res.Paths(), nil
}
