// Package prompt asks the operator whether a run should go on after a file
// failed to migrate.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Prompter decides whether to continue with the remaining files after file
// failed with err.
type Prompter interface {
	Continue(ctx context.Context, file string, err error) (bool, error)
}

// New returns an interactive prompter for in/out: the full-screen confirm
// model on a terminal, a plain y/n question otherwise.
func New(in *os.File, out io.Writer) Prompter {
	if isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()) {
		return &Terminal{In: in, Out: out}
	}
	return NewLine(in, out)
}

// Line asks on a line-oriented stream. Anything but an explicit yes stops
// the run, and so does end of input.
type Line struct {
	r   *bufio.Reader
	out io.Writer
}

// NewLine creates a Line prompter.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{r: bufio.NewReader(in), out: out}
}

func (l *Line) Continue(ctx context.Context, file string, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	fmt.Fprintf(l.out, "Migration of %s failed: %v\n", file, err)
	fmt.Fprint(l.out, "Continue with the remaining files? [y/N] ")

	answer, readErr := l.r.ReadString('\n')
	if readErr != nil && readErr != io.EOF {
		return false, fmt.Errorf("reading answer: %w", readErr)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "si", "sì":
		return true, nil
	}
	return false, nil
}

// Always answers the same without asking.
type Always bool

func (a Always) Continue(context.Context, string, error) (bool, error) {
	return bool(a), nil
}

// Scripted replays fixed answers, one per call, and stops once they run
// out. It records the files it was asked about.
type Scripted struct {
	Answers []bool
	Err     error
	Asked   []string
}

func (s *Scripted) Continue(_ context.Context, file string, _ error) (bool, error) {
	s.Asked = append(s.Asked, file)
	if s.Err != nil {
		return false, s.Err
	}
	if len(s.Answers) == 0 {
		return false, nil
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, nil
}
