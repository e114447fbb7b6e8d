//go:build integration

package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"

	"github.com/energyaudit/auditmig/internal/drivers"
	"github.com/energyaudit/auditmig/internal/source"
	"github.com/energyaudit/auditmig/internal/target"
)

func pgConnString(t *testing.T) string {
	t.Helper()
	if url := os.Getenv("AUDITMIG_TEST_PG_URL"); url != "" {
		return url
	}
	host := envOrDefault("AUDITMIG_TEST_PG_HOST", "localhost")
	port := envOrDefault("AUDITMIG_TEST_PG_PORT", "25432")
	db := envOrDefault("AUDITMIG_TEST_PG_DATABASE", "auditmig_test")
	user := envOrDefault("AUDITMIG_TEST_PG_USER", "postgres")
	pass := envOrDefault("AUDITMIG_TEST_PG_PASSWORD", "postgres")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, db)
}

func skipIfNoPostgres(t *testing.T) {
	t.Helper()
	if os.Getenv("AUDITMIG_TEST_PG_URL") == "" &&
		os.Getenv("AUDITMIG_TEST_PG_HOST") == "" && os.Getenv("AUDITMIG_TEST_PG_PORT") == "" {
		t.Skip("skipping: AUDITMIG_TEST_PG_URL or AUDITMIG_TEST_PG_HOST/PORT not set")
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// pgFixture gives each test its own schema holding fresh destination
// tables. The schema is dropped when the test ends.
type pgFixture struct {
	DSN    string
	Schema string
	Conn   *drivers.Postgres
	Writer *target.PostgresWriter
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	skipIfNoPostgres(t)
	ctx := context.Background()

	base := pgConnString(t)
	schema := "auditmig_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	admin, err := pgxpool.New(ctx, base)
	if err != nil {
		t.Fatalf("connecting to PostgreSQL: %v", err)
	}
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		admin.Close()
		t.Fatalf("creating schema %s: %v", schema, err)
	}
	t.Cleanup(func() {
		if _, err := admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE"); err != nil {
			t.Errorf("dropping schema %s: %v", schema, err)
		}
		admin.Close()
	})

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	dsn := base + sep + "search_path=" + schema

	conn, err := drivers.OpenPostgres(ctx, dsn, 2)
	if err != nil {
		t.Fatalf("opening fixture pool: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	w := target.NewPostgresWriter(conn.Pool)
	if err := w.EnsureSchema(ctx); err != nil {
		t.Fatalf("creating destination tables: %v", err)
	}
	return &pgFixture{DSN: dsn, Schema: schema, Conn: conn, Writer: w}
}

func (f *pgFixture) count(t *testing.T, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := f.Conn.Pool.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	return n
}

// writeSurvey creates a SQLite survey file at dir/name holding stmts.
func writeSurvey(t *testing.T, dir, name string, stmts ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	if err := source.CreateSchema(ctx, db); err != nil {
		t.Fatalf("creating source schema: %v", err)
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return path
}

// survey returns the statements of a one-building survey with one room and
// two openings. Room ids start at 1 in every file, as they do in the field.
func survey(code string, material string) []string {
	return []string{
		fmt.Sprintf(`INSERT INTO building VALUES ('%s', 42, ' Via Roma 1 ', 1975, NULL, 1, 0)`, code),
		fmt.Sprintf(`INSERT INTO opening VALUES ('F1', '%s', 'finestra', 120, 80, '%s', 'doppio')`, code, material),
		fmt.Sprintf(`INSERT INTO opening VALUES ('P1', '%s', 'PORTA', 210, 90, NULL, NULL)`, code),
		fmt.Sprintf(`INSERT INTO room (id, building_code, floor, space_id, room_code, usage, heating, cooling, lighting)
			VALUES (1, '%s', 'T', 1, 'R1', 'Ufficio', 'radiatori', 'split', 'led')`, code),
		fmt.Sprintf(`INSERT INTO room_opening VALUES ('F1', '%s', 1, 2)`, code),
		fmt.Sprintf(`INSERT INTO room_opening VALUES ('P1', '%s', 1, 1)`, code),
		fmt.Sprintf(`INSERT INTO room_opening VALUES ('F1', '%s', 99, 1)`, code),
		fmt.Sprintf(`INSERT INTO solar_panel (building_code, power, owner) VALUES ('%s', 3.5, 'Comune')`, code),
		fmt.Sprintf(`INSERT INTO utility (building_code, type, meter_code, meter_address) VALUES ('%s', 'Elettricità', 'M-1', NULL)`, code),
		fmt.Sprintf(`INSERT INTO utility (building_code, type, meter_code, meter_address) VALUES ('%s', 'acqua', 'W-1', 'cantina')`, code),
	}
}
