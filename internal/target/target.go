// Package target writes migrated entities into the shared PostgreSQL
// database.
package target

import (
	"context"
	_ "embed"

	"github.com/energyaudit/auditmig/internal/model"
)

// SchemaSQL creates the destination tables.
//
//go:embed schema.sql
var SchemaSQL string

// Writer defines operations on the destination database.
type Writer interface {
	// Begin opens the unit of work one source file is migrated in.
	Begin(ctx context.Context) (Tx, error)
	EnsureSchema(ctx context.Context) error

	// Validation support
	CountByBuilding(ctx context.Context, table string, buildingCodes []string) (int64, error)

	// DeleteByBuilding removes the buildings and every row that depends on
	// them, in one transaction. It returns the rows deleted per table.
	DeleteByBuilding(ctx context.Context, buildingCodes []string) (map[string]int64, error)
}

// Tx receives the rows of one source file. Nothing is visible to other
// sessions until Commit.
type Tx interface {
	InsertBuildings(ctx context.Context, rows []model.Building) (int64, error)
	InsertOpenings(ctx context.Context, rows []model.Opening) (int64, error)
	// InsertRooms stores rooms one statement per row and reports the id the
	// destination generated for each source room.
	InsertRooms(ctx context.Context, rows []model.Room) ([]RoomID, error)
	InsertRoomOpenings(ctx context.Context, rows []model.RoomOpening) (int64, error)
	InsertSolarPanels(ctx context.Context, rows []model.SolarPanel) (int64, error)
	InsertUtilities(ctx context.Context, rows []model.Utility) (int64, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RoomID pairs a source room id with the id the destination assigned.
type RoomID struct {
	Source int64
	Dest   int64
}
