package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	filesSheet = "Files"
	stepsSheet = "Steps"
)

// WriteXLSX writes the report as a workbook with one sheet of files and one
// of per-table step counts.
func WriteXLSX(r *RunReport, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", filesSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(stepsSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	files := [][]any{{"File", "Outcome", "Rows written", "Rooms mapped", "Links dropped", "Validation", "Duration (s)", "Error"}}
	for _, fr := range r.Files {
		check := ""
		if fr.Validation != nil {
			check = fr.Validation.Status
		}
		files = append(files, []any{
			fr.Name, string(fr.Outcome), fr.Written, fr.RoomsMapped, fr.Dropped, check,
			fr.Duration.Seconds(), fr.Error,
		})
	}

	steps := [][]any{{"File", "Table", "Read", "Written", "Dropped"}}
	for _, fr := range r.Files {
		for _, s := range fr.Steps {
			steps = append(steps, []any{fr.Name, string(s.Step), s.Read, s.Written, s.Dropped})
		}
	}

	for sheet, rows := range map[string][][]any{filesSheet: files, stepsSheet: steps} {
		if err := writeSheet(f, sheet, rows, headerStyle); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return fmt.Errorf("sizing %s columns: %w", sheet, err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
