package target

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/energyaudit/auditmig/internal/model"
)

var (
	buildingColumns = []string{
		"code", "dossier_id", "address", "construction_year", "renovation_year",
		"roof_insulation", "external_insulation",
	}
	openingColumns = []string{
		"code", "building_code", "type", "height", "width", "material", "glazing",
	}
	roomOpeningColumns = []string{
		"opening_code", "building_code", "room_id", "quantity",
	}
	solarPanelColumns = []string{"building_code", "power", "owner"}
	utilityColumns    = []string{"building_code", "kind", "meter_code", "meter_address"}
)

const insertRoomSQL = `INSERT INTO room
	(building_code, floor, space_id, room_code, usage, height, wall_thickness, heating, cooling, lighting)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id`

// PostgresWriter implements Writer using pgx.
type PostgresWriter struct {
	pool *pgxpool.Pool
}

// NewPostgresWriter wraps a pool. The caller owns the pool.
func NewPostgresWriter(pool *pgxpool.Pool) *PostgresWriter {
	return &PostgresWriter{pool: pool}
}

func (w *PostgresWriter) Begin(ctx context.Context) (Tx, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

func (w *PostgresWriter) EnsureSchema(ctx context.Context) error {
	if _, err := w.pool.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("creating destination schema: %w", err)
	}
	return nil
}

func (w *PostgresWriter) CountByBuilding(ctx context.Context, table string, buildingCodes []string) (int64, error) {
	if !slices.Contains(model.Tables, table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	column := "building_code"
	if table == model.TableBuilding {
		column = "code"
	}
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ANY($1)", quoteIdentPg(table), quoteIdentPg(column))

	var count int64
	if err := w.pool.QueryRow(ctx, sql, buildingCodes).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", table, err)
	}
	return count, nil
}

func (w *PostgresWriter) DeleteByBuilding(ctx context.Context, buildingCodes []string) (map[string]int64, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	deleted := make(map[string]int64, len(model.Tables))
	for _, table := range slices.Backward(model.Tables) {
		column := "building_code"
		if table == model.TableBuilding {
			column = "code"
		}
		sql := fmt.Sprintf("DELETE FROM %s WHERE %s = ANY($1)", quoteIdentPg(table), quoteIdentPg(column))
		tag, err := tx.Exec(ctx, sql, buildingCodes)
		if err != nil {
			return nil, fmt.Errorf("deleting from %s: %w", table, err)
		}
		deleted[table] = tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	return deleted, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) copy(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := t.tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copying into %s: %w", table, err)
	}
	if n != int64(len(rows)) {
		return n, fmt.Errorf("copying into %s: wrote %d of %d rows", table, n, len(rows))
	}
	return n, nil
}

func (t *postgresTx) InsertBuildings(ctx context.Context, rows []model.Building) (int64, error) {
	return t.copy(ctx, model.TableBuilding, buildingColumns, buildingRows(rows))
}

func (t *postgresTx) InsertOpenings(ctx context.Context, rows []model.Opening) (int64, error) {
	return t.copy(ctx, model.TableOpening, openingColumns, openingRows(rows))
}

func (t *postgresTx) InsertRoomOpenings(ctx context.Context, rows []model.RoomOpening) (int64, error) {
	return t.copy(ctx, model.TableRoomOpening, roomOpeningColumns, roomOpeningRows(rows))
}

func (t *postgresTx) InsertSolarPanels(ctx context.Context, rows []model.SolarPanel) (int64, error) {
	return t.copy(ctx, model.TableSolarPanel, solarPanelColumns, solarPanelRows(rows))
}

func (t *postgresTx) InsertUtilities(ctx context.Context, rows []model.Utility) (int64, error) {
	return t.copy(ctx, model.TableUtility, utilityColumns, utilityRows(rows))
}

// InsertRooms queues one INSERT ... RETURNING per room. Each statement's
// callback scans its own result, so a generated id is always attached to
// the room that produced it.
func (t *postgresTx) InsertRooms(ctx context.Context, rows []model.Room) ([]RoomID, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]RoomID, 0, len(rows))
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertRoomSQL,
			r.BuildingCode, r.Floor, r.SpaceID, r.RoomCode, r.Usage,
			r.Height, r.WallThickness, r.Heating, r.Cooling, r.Lighting,
		).QueryRow(func(row pgx.Row) error {
			var id int64
			if err := row.Scan(&id); err != nil {
				return fmt.Errorf("inserting room %d: %w", r.ID, err)
			}
			ids = append(ids, RoomID{Source: r.ID, Dest: id})
			return nil
		})
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("inserting rooms: %w", err)
	}
	return ids, nil
}

func (t *postgresTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rolling back: %w", err)
	}
	return nil
}

func buildingRows(in []model.Building) [][]any {
	out := make([][]any, len(in))
	for i, b := range in {
		out[i] = []any{b.Code, b.DossierID, b.Address, b.ConstructionYear, b.RenovationYear,
			b.RoofInsulation, b.ExternalInsulation}
	}
	return out
}

func openingRows(in []model.Opening) [][]any {
	out := make([][]any, len(in))
	for i, o := range in {
		out[i] = []any{o.Code, o.BuildingCode, o.Type, o.Height, o.Width, o.Material, o.Glazing}
	}
	return out
}

func roomOpeningRows(in []model.RoomOpening) [][]any {
	out := make([][]any, len(in))
	for i, l := range in {
		out[i] = []any{l.OpeningCode, l.BuildingCode, l.RoomID, l.Quantity}
	}
	return out
}

func solarPanelRows(in []model.SolarPanel) [][]any {
	out := make([][]any, len(in))
	for i, s := range in {
		out[i] = []any{s.BuildingCode, s.Power, s.Owner}
	}
	return out
}

func utilityRows(in []model.Utility) [][]any {
	out := make([][]any, len(in))
	for i, u := range in {
		out[i] = []any{u.BuildingCode, string(u.Kind), u.MeterCode, u.MeterAddress}
	}
	return out
}

func quoteIdentPg(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
