package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/energyaudit/auditmig/internal/model"
	"github.com/energyaudit/auditmig/internal/source"
	"github.com/energyaudit/auditmig/internal/target"
)

func makeTestValidator(src *source.MockReader, tgt *target.MockWriter, dropped map[string]int) *Validator {
	return &Validator{Source: src, Target: tgt, Dropped: dropped}
}

func oneBuilding() *source.MockReader {
	return &source.MockReader{BuildingRows: []model.Building{{Code: "B1"}}}
}

func TestValidate_AllMatch(t *testing.T) {
	src := oneBuilding()
	src.RowCounts = map[string]int64{model.TableRoom: 3, model.TableOpening: 5}
	tgt := &target.MockWriter{Counts: map[string]int64{
		model.TableBuilding: 1, model.TableRoom: 3, model.TableOpening: 5,
	}}

	result, err := makeTestValidator(src, tgt, nil).Validate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusPass {
		t.Errorf("expected PASS, got %s", result.Status)
	}
	if len(result.Tables) != len(model.Tables) {
		t.Fatalf("expected %d tables, got %d", len(model.Tables), len(result.Tables))
	}
	for i, table := range model.Tables {
		if result.Tables[i].Name != table {
			t.Errorf("table %d = %s, want %s", i, result.Tables[i].Name, table)
		}
	}
	if len(result.Failed()) != 0 {
		t.Errorf("unexpected failures %v", result.Failed())
	}
}

func TestValidate_Mismatch(t *testing.T) {
	src := oneBuilding()
	src.RowCounts = map[string]int64{model.TableRoom: 3}
	tgt := &target.MockWriter{Counts: map[string]int64{model.TableBuilding: 1, model.TableRoom: 2}}

	result, err := makeTestValidator(src, tgt, nil).Validate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusPartial {
		t.Errorf("expected PARTIAL, got %s", result.Status)
	}
	failed := result.Failed()
	if len(failed) != 1 || failed[0].Name != model.TableRoom {
		t.Fatalf("expected only room to fail, got %+v", failed)
	}
	rc := failed[0].RowCountCheck
	if rc.Match || rc.Message == "" {
		t.Errorf("expected mismatch message, got %+v", rc)
	}
}

func TestValidate_DroppedRowsExpected(t *testing.T) {
	src := oneBuilding()
	src.RowCounts = map[string]int64{model.TableRoomOpening: 4}
	tgt := &target.MockWriter{Counts: map[string]int64{model.TableBuilding: 1, model.TableRoomOpening: 2}}

	result, err := makeTestValidator(src, tgt, map[string]int{model.TableRoomOpening: 2}).Validate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusPass {
		t.Errorf("expected PASS once dropped rows are accounted for, got %s", result.Status)
	}
	for _, tr := range result.Tables {
		if tr.Name == model.TableRoomOpening && tr.RowCountCheck.ExpectedCount != 2 {
			t.Errorf("expected count = %d, want 2", tr.RowCountCheck.ExpectedCount)
		}
	}
}

func TestValidate_CountsOnlyThisFilesBuildings(t *testing.T) {
	src := oneBuilding()
	tgt := &target.MockWriter{
		CommittedBuildings: []model.Building{{Code: "B1"}, {Code: "B2"}, {Code: "B3"}},
	}

	result, err := makeTestValidator(src, tgt, nil).Validate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusPass {
		t.Errorf("other files' buildings should not count, got %s: %+v", result.Status, result.Failed())
	}
}

func TestValidate_AllFail(t *testing.T) {
	src := &source.MockReader{
		RowCounts: map[string]int64{
			model.TableBuilding: 1, model.TableOpening: 1, model.TableRoom: 1,
			model.TableRoomOpening: 1, model.TableSolarPanel: 1, model.TableUtility: 1,
		},
	}
	result, err := makeTestValidator(src, &target.MockWriter{}, nil).Validate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusFail {
		t.Errorf("expected FAIL, got %s", result.Status)
	}
}

func TestValidate_SourceError(t *testing.T) {
	boom := errors.New("database is locked")
	src := oneBuilding()
	src.RowCountErr = boom
	_, err := makeTestValidator(src, &target.MockWriter{}, nil).Validate(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
}

func TestValidate_TargetError(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := makeTestValidator(oneBuilding(), &target.MockWriter{CountErr: boom}, nil).Validate(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped destination error, got %v", err)
	}
}

func TestValidate_Callback(t *testing.T) {
	var calls []string
	v := makeTestValidator(oneBuilding(), &target.MockWriter{Counts: map[string]int64{model.TableBuilding: 1}}, nil)
	v.Callback = func(table string, passed bool) {
		if !passed {
			t.Errorf("%s should pass", table)
		}
		calls = append(calls, table)
	}
	if _, err := v.Validate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(calls) != len(model.Tables) {
		t.Errorf("callback called %d times, want %d", len(calls), len(model.Tables))
	}
}

func TestComputeOverallStatus(t *testing.T) {
	tests := []struct {
		name   string
		tables []TableResult
		want   string
	}{
		{"empty", nil, StatusPass},
		{"all pass", []TableResult{{Status: StatusPass}, {Status: StatusPass}}, StatusPass},
		{"all fail", []TableResult{{Status: StatusFail}, {Status: StatusFail}}, StatusFail},
		{"mixed", []TableResult{{Status: StatusPass}, {Status: StatusFail}}, StatusPartial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeOverallStatus(tt.tables); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
