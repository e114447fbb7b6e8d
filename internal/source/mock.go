package source

import (
	"context"
	"fmt"

	"github.com/energyaudit/auditmig/internal/model"
)

// MockReader is a test double for the Reader interface.
type MockReader struct {
	BuildingRows    []model.Building
	OpeningRows     []model.Opening
	RoomRows        []model.Room
	RoomOpeningRows []model.RoomOpening
	SolarPanelRows  []model.SolarPanel
	UtilityRows     []model.UtilityRow

	// Errs fails the read of the named table.
	Errs map[string]error

	RowCounts   map[string]int64
	RowCountErr error

	// Reads records every table read, in call order.
	Reads []string
}

func (m *MockReader) read(table string) error {
	m.Reads = append(m.Reads, table)
	if m.Errs != nil {
		return m.Errs[table]
	}
	return nil
}

func (m *MockReader) Buildings(_ context.Context) ([]model.Building, error) {
	if err := m.read(model.TableBuilding); err != nil {
		return nil, err
	}
	return m.BuildingRows, nil
}

func (m *MockReader) Openings(_ context.Context) ([]model.Opening, error) {
	if err := m.read(model.TableOpening); err != nil {
		return nil, err
	}
	return m.OpeningRows, nil
}

func (m *MockReader) Rooms(_ context.Context) ([]model.Room, error) {
	if err := m.read(model.TableRoom); err != nil {
		return nil, err
	}
	return m.RoomRows, nil
}

func (m *MockReader) RoomOpenings(_ context.Context) ([]model.RoomOpening, error) {
	if err := m.read(model.TableRoomOpening); err != nil {
		return nil, err
	}
	return m.RoomOpeningRows, nil
}

func (m *MockReader) SolarPanels(_ context.Context) ([]model.SolarPanel, error) {
	if err := m.read(model.TableSolarPanel); err != nil {
		return nil, err
	}
	return m.SolarPanelRows, nil
}

func (m *MockReader) Utilities(_ context.Context) ([]model.UtilityRow, error) {
	if err := m.read(model.TableUtility); err != nil {
		return nil, err
	}
	return m.UtilityRows, nil
}

// RowCount answers from RowCounts when set, otherwise from the row slices.
func (m *MockReader) RowCount(_ context.Context, table string) (int64, error) {
	if m.RowCountErr != nil {
		return 0, m.RowCountErr
	}
	if m.RowCounts != nil {
		if c, ok := m.RowCounts[table]; ok {
			return c, nil
		}
	}
	switch table {
	case model.TableBuilding:
		return int64(len(m.BuildingRows)), nil
	case model.TableOpening:
		return int64(len(m.OpeningRows)), nil
	case model.TableRoom:
		return int64(len(m.RoomRows)), nil
	case model.TableRoomOpening:
		return int64(len(m.RoomOpeningRows)), nil
	case model.TableSolarPanel:
		return int64(len(m.SolarPanelRows)), nil
	case model.TableUtility:
		return int64(len(m.UtilityRows)), nil
	}
	return 0, fmt.Errorf("no row count configured for table %s", table)
}

func (m *MockReader) BuildingCodes(_ context.Context) ([]string, error) {
	codes := make([]string, 0, len(m.BuildingRows))
	for _, b := range m.BuildingRows {
		codes = append(codes, b.Code)
	}
	return codes, nil
}
