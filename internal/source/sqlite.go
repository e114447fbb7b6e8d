package source

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/energyaudit/auditmig/internal/model"
)

// SQLiteReader implements Reader over a database/sql handle opened with the
// sqlite3 driver.
type SQLiteReader struct {
	db *sql.DB
}

// NewSQLiteReader wraps an open SQLite database. The caller owns db.
func NewSQLiteReader(db *sql.DB) *SQLiteReader {
	return &SQLiteReader{db: db}
}

// CreateSchema creates the source tables in db if they are missing.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("creating source schema: %w", err)
	}
	return nil
}

func (r *SQLiteReader) Buildings(ctx context.Context) ([]model.Building, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, dossier_id, address, construction_year, renovation_year,
		       roof_insulation, external_insulation
		FROM building
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("querying buildings: %w", err)
	}
	defer rows.Close()

	var out []model.Building
	for rows.Next() {
		var b model.Building
		var built, renovated sql.NullInt64
		if err := rows.Scan(&b.Code, &b.DossierID, &b.Address, &built, &renovated,
			&b.RoofInsulation, &b.ExternalInsulation); err != nil {
			return nil, fmt.Errorf("scanning building: %w", err)
		}
		b.ConstructionYear = int64Ptr(built)
		b.RenovationYear = int64Ptr(renovated)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating buildings: %w", err)
	}
	return out, nil
}

func (r *SQLiteReader) Openings(ctx context.Context) ([]model.Opening, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, building_code, type, height, width, material, glazing
		FROM opening
		ORDER BY building_code, code`)
	if err != nil {
		return nil, fmt.Errorf("querying openings: %w", err)
	}
	defer rows.Close()

	var out []model.Opening
	for rows.Next() {
		var o model.Opening
		var material, glazing sql.NullString
		if err := rows.Scan(&o.Code, &o.BuildingCode, &o.Type, &o.Height, &o.Width,
			&material, &glazing); err != nil {
			return nil, fmt.Errorf("scanning opening: %w", err)
		}
		o.Material = stringPtr(material)
		o.Glazing = stringPtr(glazing)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating openings: %w", err)
	}
	return out, nil
}

func (r *SQLiteReader) Rooms(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, building_code, floor, space_id, room_code, usage,
		       height, wall_thickness, heating, cooling, lighting
		FROM room
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		var rm model.Room
		var height, wall sql.NullFloat64
		var heating, cooling, lighting sql.NullString
		if err := rows.Scan(&rm.ID, &rm.BuildingCode, &rm.Floor, &rm.SpaceID, &rm.RoomCode,
			&rm.Usage, &height, &wall, &heating, &cooling, &lighting); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rm.Height = float64Ptr(height)
		rm.WallThickness = float64Ptr(wall)
		rm.Heating = stringPtr(heating)
		rm.Cooling = stringPtr(cooling)
		rm.Lighting = stringPtr(lighting)
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}
	return out, nil
}

func (r *SQLiteReader) RoomOpenings(ctx context.Context) ([]model.RoomOpening, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT opening_code, building_code, room_id, quantity
		FROM room_opening
		ORDER BY room_id, building_code, opening_code`)
	if err != nil {
		return nil, fmt.Errorf("querying room openings: %w", err)
	}
	defer rows.Close()

	var out []model.RoomOpening
	for rows.Next() {
		var l model.RoomOpening
		if err := rows.Scan(&l.OpeningCode, &l.BuildingCode, &l.RoomID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scanning room opening: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room openings: %w", err)
	}
	return out, nil
}

// SolarPanels reads power as stored because older files keep it as text,
// sometimes with a comma decimal separator. Owner may be empty.
func (r *SQLiteReader) SolarPanels(ctx context.Context) ([]model.SolarPanel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, building_code, power, COALESCE(owner, '')
		FROM solar_panel
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying solar panels: %w", err)
	}
	defer rows.Close()

	var out []model.SolarPanel
	for rows.Next() {
		var s model.SolarPanel
		var power any
		if err := rows.Scan(&s.ID, &s.BuildingCode, &power, &s.Owner); err != nil {
			return nil, fmt.Errorf("scanning solar panel: %w", err)
		}
		if s.Power, err = parsePower(power); err != nil {
			return nil, fmt.Errorf("solar panel %d: %w", s.ID, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating solar panels: %w", err)
	}
	return out, nil
}

// Utilities converts meter_code to text in Go since some files typed it
// INTEGER or REAL.
func (r *SQLiteReader) Utilities(ctx context.Context) ([]model.UtilityRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, building_code, COALESCE(type, ''), meter_code, meter_address
		FROM utility
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying utilities: %w", err)
	}
	defer rows.Close()

	var out []model.UtilityRow
	for rows.Next() {
		var u model.UtilityRow
		var addr sql.NullString
		var meter any
		if err := rows.Scan(&u.ID, &u.BuildingCode, &u.Type, &meter, &addr); err != nil {
			return nil, fmt.Errorf("scanning utility: %w", err)
		}
		if u.MeterCode, err = meterCode(meter); err != nil {
			return nil, fmt.Errorf("utility %d: %w", u.ID, err)
		}
		u.MeterAddress = stringPtr(addr)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating utilities: %w", err)
	}
	return out, nil
}

func (r *SQLiteReader) RowCount(ctx context.Context, table string) (int64, error) {
	if !slices.Contains(model.Tables, table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var count int64
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))
	if err := r.db.QueryRowContext(ctx, q).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", table, err)
	}
	return count, nil
}

func (r *SQLiteReader) BuildingCodes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT code FROM building ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("querying building codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scanning building code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// parsePower accepts a stored number or a plain decimal string, with either
// '.' or ',' as separator. Anything else, units included, is an error.
func parsePower(v any) (float64, error) {
	switch p := v.(type) {
	case float64:
		return p, nil
	case int64:
		return float64(p), nil
	case []byte:
		return parsePowerText(string(p))
	case string:
		return parsePowerText(p)
	case nil:
		return 0, fmt.Errorf("power is null")
	default:
		return 0, fmt.Errorf("power has unexpected type %T", v)
	}
}

func parsePowerText(s string) (float64, error) {
	t := strings.TrimSpace(s)
	if strings.Count(t, ",") == 1 && !strings.Contains(t, ".") {
		t = strings.Replace(t, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("power %q is not a number", s)
	}
	return f, nil
}

// meterCode renders a stored meter code as text. Integral REAL values drop
// the fractional part SQLite would print as ".0".
func meterCode(v any) (string, error) {
	switch m := v.(type) {
	case string:
		return m, nil
	case []byte:
		return string(m), nil
	case int64:
		return strconv.FormatInt(m, 10), nil
	case float64:
		if m == math.Trunc(m) && math.Abs(m) < 1<<53 {
			return strconv.FormatInt(int64(m), 10), nil
		}
		return strconv.FormatFloat(m, 'f', -1, 64), nil
	case nil:
		return "", fmt.Errorf("meter code is null")
	default:
		return "", fmt.Errorf("meter code has unexpected type %T", v)
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func float64Ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
