// Package source reads the energy audit dataset out of a per-building
// SQLite file.
package source

import (
	"context"
	_ "embed"

	"github.com/energyaudit/auditmig/internal/model"
)

// SchemaSQL is the table layout of a current source file.
//
//go:embed schema.sql
var SchemaSQL string

// Reader provides read-only access to every migrated entity of one source.
type Reader interface {
	Buildings(ctx context.Context) ([]model.Building, error)
	Openings(ctx context.Context) ([]model.Opening, error)
	// Rooms returns rows ordered by source id.
	Rooms(ctx context.Context) ([]model.Room, error)
	RoomOpenings(ctx context.Context) ([]model.RoomOpening, error)
	SolarPanels(ctx context.Context) ([]model.SolarPanel, error)
	Utilities(ctx context.Context) ([]model.UtilityRow, error)

	// Validation support
	RowCount(ctx context.Context, table string) (int64, error)
	BuildingCodes(ctx context.Context) ([]string, error)
}
