package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).BorderStyle(lipgloss.DoubleBorder()).BorderBottom(true).Padding(0, 1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func outcomeStyle(o Outcome) lipgloss.Style {
	switch o {
	case OutcomeMigrated:
		return successStyle
	case OutcomeSkipped, OutcomeNotAttempted:
		return dimStyle
	case OutcomePrepareFailed:
		return warnStyle
	default:
		return errStyle
	}
}

// Render draws the report summary for a terminal.
func Render(r *RunReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Migration summary"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("run %s  →  %s", r.RunID, r.Destination)))
	b.WriteString("\n\n")

	if len(r.Files) == 0 {
		b.WriteString(dimStyle.Render("No source files found."))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, 0, len(r.Files))
	for _, f := range r.Files {
		dropped := ""
		if f.Dropped > 0 {
			dropped = fmt.Sprint(f.Dropped)
		}
		check := ""
		if f.Validation != nil {
			check = f.Validation.Status
		}
		rows = append(rows, []string{f.Name, string(f.Outcome), fmt.Sprint(f.Written), dropped, check})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("FILE", "OUTCOME", "ROWS", "DROPPED", "CHECK").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(r.Files) {
				return outcomeStyle(r.Files[row].Outcome).Padding(0, 1)
			}
			return cellStyle
		})
	b.WriteString(t.String())
	b.WriteString("\n\n")

	summary := fmt.Sprintf("%d migrated, %d failed, %d failed preparation, %d skipped, %d not attempted; %d rows written",
		r.Count(OutcomeMigrated), r.Count(OutcomeFailed), r.Count(OutcomePrepareFailed), r.Count(OutcomeSkipped),
		r.Count(OutcomeNotAttempted), r.Written())
	if r.Success() {
		b.WriteString(successStyle.Render(summary))
	} else {
		b.WriteString(errStyle.Render(summary))
	}
	b.WriteString("\n")

	for _, f := range r.Files {
		if f.Error == "" {
			continue
		}
		b.WriteString(outcomeStyle(f.Outcome).Render(fmt.Sprintf("  %s: %s", f.Name, f.Error)))
		b.WriteString("\n")
	}
	if r.Aborted {
		b.WriteString(warnStyle.Render("Run stopped by operator; remaining files were not attempted."))
		b.WriteString("\n")
	}
	return b.String()
}
