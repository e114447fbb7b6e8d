package migration

import (
	"time"

	"github.com/energyaudit/auditmig/internal/model"
)

// Step names one entity migration step.
type Step string

const (
	StepBuilding    Step = model.TableBuilding
	StepOpening     Step = model.TableOpening
	StepRoom        Step = model.TableRoom
	StepRoomOpening Step = model.TableRoomOpening
	StepSolarPanel  Step = model.TableSolarPanel
	StepUtility     Step = model.TableUtility
)

// Steps lists the steps in the order they run.
var Steps = []Step{StepBuilding, StepOpening, StepRoom, StepRoomOpening, StepSolarPanel, StepUtility}

// StepResult counts the rows one step moved.
type StepResult struct {
	Step    Step  `json:"step"`
	Read    int   `json:"read"`
	Written int64 `json:"written"`
	// Dropped counts rows left out on purpose (room openings whose room
	// was never migrated).
	Dropped int `json:"dropped,omitempty"`
}

// Result summarizes one file's migration.
type Result struct {
	Source      string        `json:"source"`
	Steps       []StepResult  `json:"steps"`
	RoomsMapped int           `json:"rooms_mapped"`
	Committed   bool          `json:"committed"`
	Duration    time.Duration `json:"duration"`
}

// Lookup returns the result of the named step, if it ran.
func (r *Result) Lookup(s Step) (StepResult, bool) {
	for _, sr := range r.Steps {
		if sr.Step == s {
			return sr, true
		}
	}
	return StepResult{}, false
}

// Written totals the rows written across all steps.
func (r *Result) Written() int64 {
	var n int64
	for _, sr := range r.Steps {
		n += sr.Written
	}
	return n
}

// Dropped totals the rows intentionally left out.
func (r *Result) Dropped() int {
	var n int
	for _, sr := range r.Steps {
		n += sr.Dropped
	}
	return n
}
