// Package drivers opens the database handles a migration runs between.
package drivers

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
)

// Kind identifies the database engine behind a Conn.
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

// Conn is an open database handle.
type Conn interface {
	Kind() Kind
	Close() error
}

// KindOf returns the kind of c, or "none" for a nil handle.
func KindOf(c Conn) Kind {
	if c == nil {
		return "none"
	}
	return c.Kind()
}

// SQLite is a handle on a single SQLite file.
type SQLite struct {
	DB   *sql.DB
	Path string
}

// OpenSQLite opens an existing SQLite file. Unlike the driver's default it
// refuses to create a new, empty database when path does not exist.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("opening %s: not a regular file", path)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// A single writer keeps script execution and reads on one connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", path, err)
	}
	return &SQLite{DB: db, Path: path}, nil
}

func (s *SQLite) Kind() Kind { return KindSQLite }

func (s *SQLite) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Postgres is a pooled PostgreSQL handle shared by every file in a run.
type Postgres struct {
	Pool *pgxpool.Pool
}

// OpenPostgres connects to PostgreSQL. maxConns <= 0 keeps the pool default.
func OpenPostgres(ctx context.Context, connStr string, maxConns int32) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging PostgreSQL: %w", err)
	}
	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Kind() Kind { return KindPostgres }

func (p *Postgres) Close() error {
	if p.Pool != nil {
		p.Pool.Close()
	}
	return nil
}
