package target

import (
	"context"
	"fmt"

	"github.com/energyaudit/auditmig/internal/model"
)

// MockWriter is a test double for the Writer interface. Rows inserted
// through a committed MockTx become visible in the Committed* fields.
type MockWriter struct {
	BeginErr  error
	SchemaErr error
	// InsertErrs fails the insert into the named table.
	InsertErrs map[string]error
	CommitErr  error
	// NextRoomID is the first id handed out to inserted rooms (default 1000).
	NextRoomID int64
	// DropRoomIDs makes InsertRooms return fewer ids than rows.
	DropRoomIDs bool

	Counts   map[string]int64
	CountErr error

	DeleteErr error
	// DeletedCodes records the building codes of every DeleteByBuilding call.
	DeletedCodes [][]string

	SchemaCreated bool
	Txs           []*MockTx

	CommittedBuildings    []model.Building
	CommittedOpenings     []model.Opening
	CommittedRooms        []model.Room
	CommittedRoomOpenings []model.RoomOpening
	CommittedSolarPanels  []model.SolarPanel
	CommittedUtilities    []model.Utility
}

func (m *MockWriter) Begin(_ context.Context) (Tx, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	if m.NextRoomID == 0 {
		m.NextRoomID = 1000
	}
	tx := &MockTx{writer: m}
	m.Txs = append(m.Txs, tx)
	return tx, nil
}

func (m *MockWriter) EnsureSchema(_ context.Context) error {
	if m.SchemaErr != nil {
		return m.SchemaErr
	}
	m.SchemaCreated = true
	return nil
}

// CountByBuilding answers from Counts when set, otherwise from committed rows.
func (m *MockWriter) CountByBuilding(_ context.Context, table string, codes []string) (int64, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	if m.Counts != nil {
		if c, ok := m.Counts[table]; ok {
			return c, nil
		}
	}
	in := make(map[string]bool, len(codes))
	for _, c := range codes {
		in[c] = true
	}
	var n int64
	switch table {
	case model.TableBuilding:
		for _, r := range m.CommittedBuildings {
			if in[r.Code] {
				n++
			}
		}
	case model.TableOpening:
		for _, r := range m.CommittedOpenings {
			if in[r.BuildingCode] {
				n++
			}
		}
	case model.TableRoom:
		for _, r := range m.CommittedRooms {
			if in[r.BuildingCode] {
				n++
			}
		}
	case model.TableRoomOpening:
		for _, r := range m.CommittedRoomOpenings {
			if in[r.BuildingCode] {
				n++
			}
		}
	case model.TableSolarPanel:
		for _, r := range m.CommittedSolarPanels {
			if in[r.BuildingCode] {
				n++
			}
		}
	case model.TableUtility:
		for _, r := range m.CommittedUtilities {
			if in[r.BuildingCode] {
				n++
			}
		}
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	return n, nil
}

// DeleteByBuilding drops the committed rows of the named buildings.
func (m *MockWriter) DeleteByBuilding(_ context.Context, codes []string) (map[string]int64, error) {
	if m.DeleteErr != nil {
		return nil, m.DeleteErr
	}
	m.DeletedCodes = append(m.DeletedCodes, codes)
	in := make(map[string]bool, len(codes))
	for _, c := range codes {
		in[c] = true
	}

	deleted := make(map[string]int64, len(model.Tables))
	m.CommittedRoomOpenings = keep(m.CommittedRoomOpenings, func(r model.RoomOpening) bool { return !in[r.BuildingCode] }, deleted, model.TableRoomOpening)
	m.CommittedUtilities = keep(m.CommittedUtilities, func(r model.Utility) bool { return !in[r.BuildingCode] }, deleted, model.TableUtility)
	m.CommittedSolarPanels = keep(m.CommittedSolarPanels, func(r model.SolarPanel) bool { return !in[r.BuildingCode] }, deleted, model.TableSolarPanel)
	m.CommittedRooms = keep(m.CommittedRooms, func(r model.Room) bool { return !in[r.BuildingCode] }, deleted, model.TableRoom)
	m.CommittedOpenings = keep(m.CommittedOpenings, func(r model.Opening) bool { return !in[r.BuildingCode] }, deleted, model.TableOpening)
	m.CommittedBuildings = keep(m.CommittedBuildings, func(r model.Building) bool { return !in[r.Code] }, deleted, model.TableBuilding)
	return deleted, nil
}

func keep[T any](rows []T, ok func(T) bool, deleted map[string]int64, table string) []T {
	var out []T
	for _, r := range rows {
		if ok(r) {
			out = append(out, r)
		} else {
			deleted[table]++
		}
	}
	return out
}

// MockTx records the inserts of one unit of work.
type MockTx struct {
	writer *MockWriter

	// Inserts records every non-skipped insert call by table, in call order.
	Inserts []string

	Buildings    []model.Building
	Openings     []model.Opening
	Rooms        []model.Room
	RoomOpenings []model.RoomOpening
	SolarPanels  []model.SolarPanel
	Utilities    []model.Utility

	Committed  bool
	RolledBack bool
}

func (t *MockTx) insert(table string) error {
	t.Inserts = append(t.Inserts, table)
	if t.writer.InsertErrs != nil {
		return t.writer.InsertErrs[table]
	}
	return nil
}

func (t *MockTx) InsertBuildings(_ context.Context, rows []model.Building) (int64, error) {
	if err := t.insert(model.TableBuilding); err != nil {
		return 0, err
	}
	t.Buildings = append(t.Buildings, rows...)
	return int64(len(rows)), nil
}

func (t *MockTx) InsertOpenings(_ context.Context, rows []model.Opening) (int64, error) {
	if err := t.insert(model.TableOpening); err != nil {
		return 0, err
	}
	t.Openings = append(t.Openings, rows...)
	return int64(len(rows)), nil
}

// InsertRooms stores each room under a fresh id, like an identity column.
func (t *MockTx) InsertRooms(_ context.Context, rows []model.Room) ([]RoomID, error) {
	if err := t.insert(model.TableRoom); err != nil {
		return nil, err
	}
	ids := make([]RoomID, 0, len(rows))
	for _, r := range rows {
		id := t.writer.NextRoomID
		t.writer.NextRoomID++
		stored := r
		stored.ID = id
		t.Rooms = append(t.Rooms, stored)
		ids = append(ids, RoomID{Source: r.ID, Dest: id})
	}
	if t.writer.DropRoomIDs && len(ids) > 0 {
		ids = ids[:len(ids)-1]
	}
	return ids, nil
}

func (t *MockTx) InsertRoomOpenings(_ context.Context, rows []model.RoomOpening) (int64, error) {
	if err := t.insert(model.TableRoomOpening); err != nil {
		return 0, err
	}
	t.RoomOpenings = append(t.RoomOpenings, rows...)
	return int64(len(rows)), nil
}

func (t *MockTx) InsertSolarPanels(_ context.Context, rows []model.SolarPanel) (int64, error) {
	if err := t.insert(model.TableSolarPanel); err != nil {
		return 0, err
	}
	t.SolarPanels = append(t.SolarPanels, rows...)
	return int64(len(rows)), nil
}

func (t *MockTx) InsertUtilities(_ context.Context, rows []model.Utility) (int64, error) {
	if err := t.insert(model.TableUtility); err != nil {
		return 0, err
	}
	t.Utilities = append(t.Utilities, rows...)
	return int64(len(rows)), nil
}

func (t *MockTx) Commit(_ context.Context) error {
	if t.writer.CommitErr != nil {
		return t.writer.CommitErr
	}
	t.Committed = true
	w := t.writer
	w.CommittedBuildings = append(w.CommittedBuildings, t.Buildings...)
	w.CommittedOpenings = append(w.CommittedOpenings, t.Openings...)
	w.CommittedRooms = append(w.CommittedRooms, t.Rooms...)
	w.CommittedRoomOpenings = append(w.CommittedRoomOpenings, t.RoomOpenings...)
	w.CommittedSolarPanels = append(w.CommittedSolarPanels, t.SolarPanels...)
	w.CommittedUtilities = append(w.CommittedUtilities, t.Utilities...)
	return nil
}

func (t *MockTx) Rollback(_ context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}
