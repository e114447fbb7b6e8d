package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/energyaudit/auditmig/internal/migration"
	"github.com/energyaudit/auditmig/internal/validation"
)

func sampleReport() *RunReport {
	r := New("/home/op/Documents/RilieviEnergetici", "postgres://audit:s3cret@db:5432/audit")
	r.Add(FromResult("/src/migrations/1.db", &migration.Result{
		Steps: []migration.StepResult{
			{Step: migration.StepBuilding, Read: 1, Written: 1},
			{Step: migration.StepRoomOpening, Read: 3, Written: 2, Dropped: 1},
		},
		RoomsMapped: 1,
		Committed:   true,
		Duration:    1500 * time.Millisecond,
	}, nil))
	r.Add(FromResult("/src/migrations/2.db", &migration.Result{
		Steps: []migration.StepResult{{Step: migration.StepBuilding, Read: 1, Written: 1}},
	}, errors.New("migrating opening: invalid opening.material \"plastica\"")))
	r.Add(FileReport{Source: "/src/3.db", Outcome: OutcomePrepareFailed, Error: "file is not a database"})
	r.Finish()
	return r
}

func TestNew(t *testing.T) {
	r := New("/src", "postgres://u:pw@h/db")
	if _, err := uuid.Parse(r.RunID); err != nil {
		t.Errorf("run id %q is not a uuid: %v", r.RunID, err)
	}
	if strings.Contains(r.Destination, "pw") {
		t.Errorf("password leaked into report: %s", r.Destination)
	}
	if New("/src", "x").RunID == r.RunID {
		t.Error("run ids should differ")
	}
}

func TestFromResult(t *testing.T) {
	r := sampleReport()
	ok := r.Files[0]
	if ok.Outcome != OutcomeMigrated || ok.Written != 3 || ok.Dropped != 1 || ok.Name != "1.db" {
		t.Errorf("unexpected migrated file report %+v", ok)
	}
	failed := r.Files[1]
	if failed.Outcome != OutcomeFailed || failed.Written != 0 || failed.Error == "" {
		t.Errorf("rolled back file should report no rows and an error: %+v", failed)
	}
	if r.Files[2].Name != "3.db" {
		t.Errorf("Add should fill the name, got %q", r.Files[2].Name)
	}
}

func TestCounts(t *testing.T) {
	r := sampleReport()
	if r.Count(OutcomeMigrated) != 1 || r.Count(OutcomeFailed) != 1 || r.Count(OutcomePrepareFailed) != 1 {
		t.Errorf("unexpected counts in %+v", r.Files)
	}
	if r.Written() != 3 {
		t.Errorf("Written = %d, want 3", r.Written())
	}
	if r.Success() {
		t.Error("report with failures should not be a success")
	}
	if len(r.Filter(OutcomePrepareFailed)) != 1 {
		t.Error("Filter should return the failed preparation")
	}
}

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		in, notWant string
	}{
		{"postgres://audit:s3cret@db:5432/audit", "s3cret"},
		{"host=db user=audit password=s3cret dbname=audit", "s3cret"},
	}
	for _, tt := range tests {
		got := RedactDSN(tt.in)
		if strings.Contains(got, tt.notWant) {
			t.Errorf("RedactDSN(%q) = %q still has the password", tt.in, got)
		}
	}
	if got := RedactDSN("postgres://db/audit"); got != "postgres://db/audit" {
		t.Errorf("DSN without password changed: %q", got)
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	r := sampleReport()
	r.Files[0].Validation = &validation.Result{Status: validation.StatusPass}

	if err := Write(r, path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	loaded, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if loaded.RunID != r.RunID || loaded.Version != "1" {
		t.Errorf("header lost: %+v", loaded)
	}
	if len(loaded.Files) != 3 || loaded.Files[0].Steps[1].Dropped != 1 {
		t.Errorf("files lost: %+v", loaded.Files)
	}
	if loaded.Files[0].Validation.Status != validation.StatusPass {
		t.Error("validation lost")
	}
}

func TestFormatText(t *testing.T) {
	text := FormatText(sampleReport())
	for _, want := range []string{
		"auditmig Run Report",
		"1 migrated, 1 failed, 1 failed preparation, 0 skipped",
		"[MIGRATED] 1.db (3 rows, 1 links dropped)",
		"plastica",
		"Failed preparations:",
		"3.db: file is not a database",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text should contain %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "s3cret") {
		t.Error("text report leaks the password")
	}
}

func TestWriteText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := Write(sampleReport(), path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Run Report") {
		t.Error("text report not written")
	}
}

func TestRender(t *testing.T) {
	out := Render(sampleReport())
	for _, want := range []string{"Migration summary", "1.db", "prepare_failed", "1 migrated"} {
		if !strings.Contains(out, want) {
			t.Errorf("render should contain %q:\n%s", want, out)
		}
	}

	empty := Render(New("/src", "postgres://db/audit"))
	if !strings.Contains(empty, "No source files found") {
		t.Errorf("empty run render:\n%s", empty)
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := Write(sampleReport(), path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	files, err := f.GetRows(filesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 4 {
		t.Fatalf("expected header + 3 file rows, got %d", len(files))
	}
	if files[0][0] != "File" || files[1][0] != "1.db" || files[1][1] != "migrated" {
		t.Errorf("unexpected file rows %v", files[:2])
	}

	steps, err := f.GetRows(stepsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 4 {
		t.Errorf("expected header + 3 step rows, got %d", len(steps))
	}
}

func TestFormatText_NotAttempted(t *testing.T) {
	r := sampleReport()
	r.Aborted = true
	r.Add(FileReport{Source: "/src/4.db", Outcome: OutcomeNotAttempted})

	text := FormatText(r)
	for _, want := range []string{"1 not attempted", "[NOT_ATTEMPTED] 4.db", "Not attempted:\n  4.db"} {
		if !strings.Contains(text, want) {
			t.Errorf("text should contain %q:\n%s", want, text)
		}
	}
	if r.Success() {
		t.Error("a stopped run is not a success")
	}
	if !strings.Contains(Render(r), "1 not attempted") {
		t.Error("render should count the files not attempted")
	}
}
