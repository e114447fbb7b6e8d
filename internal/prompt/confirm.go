package prompt

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Padding(0, 1)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type keyMap struct {
	Continue key.Binding
	Stop     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Continue, k.Stop} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var keys = keyMap{
	Continue: key.NewBinding(
		key.WithKeys("y", "enter"),
		key.WithHelp("y/enter", "continue with next file"),
	),
	Stop: key.NewBinding(
		key.WithKeys("n", "q", "esc", "ctrl+c"),
		key.WithHelp("n/q", "stop the run"),
	),
}

// ConfirmModel is the bubbletea model shown after a failed file.
type ConfirmModel struct {
	file      string
	err       error
	help      help.Model
	confirmed bool
	done      bool
	width     int
}

// NewConfirmModel creates a confirm model for a failed file.
func NewConfirmModel(file string, err error) ConfirmModel {
	return ConfirmModel{file: file, err: err, help: help.New(), width: 80}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Continue):
			m.done = true
			m.confirmed = true
			return m, tea.Quit
		case key.Matches(msg, keys.Stop):
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Migration failed: " + filepath.Base(m.file)))
	b.WriteString("\n\n")
	if m.err != nil {
		msg := lipgloss.NewStyle().Width(m.width - 4).Render(m.err.Error())
		b.WriteString(errStyle.Render(indent(msg, "  ")))
		b.WriteString("\n\n")
	}
	b.WriteString("  Nothing from this file was written to the destination.\n")
	b.WriteString("  Continue with the remaining files?\n\n")
	b.WriteString(dimStyle.Render("  " + m.help.View(keys)))
	b.WriteString("\n")
	return b.String()
}

// Done returns true when the operator has answered.
func (m ConfirmModel) Done() bool {
	return m.done
}

// Confirmed returns true if the operator chose to continue.
func (m ConfirmModel) Confirmed() bool {
	return m.confirmed
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// Terminal shows a ConfirmModel on an interactive terminal.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

func (t *Terminal) Continue(ctx context.Context, file string, err error) (bool, error) {
	p := tea.NewProgram(NewConfirmModel(file, err),
		tea.WithInput(t.In),
		tea.WithOutput(t.Out),
		tea.WithContext(ctx),
	)
	final, runErr := p.Run()
	if runErr != nil {
		return false, fmt.Errorf("running prompt: %w", runErr)
	}
	return final.(ConfirmModel).Confirmed(), nil
}
