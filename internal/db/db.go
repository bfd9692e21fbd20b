package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Options controls how a Store is opened.
type Options struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// Store owns the database handle shared by one service instance.
type Store struct {
	db     *sql.DB
	driver string
}

// Open opens the database, verifies the connection and creates missing tables.
func Open(ctx context.Context, opts Options) (*Store, error) {
	switch opts.Driver {
	case DriverSQLite, DriverPostgres:
	case "":
		opts.Driver = DriverSQLite
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	conn, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pool := poolFor(opts)
	conn.SetMaxOpenConns(pool.maxOpen)
	conn.SetConnMaxLifetime(pool.maxLifetime)
	conn.SetConnMaxIdleTime(pool.maxIdleTime)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{db: conn, driver: opts.Driver}
	if err := s.createTables(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

type poolSettings struct {
	maxOpen     int
	maxLifetime time.Duration
	maxIdleTime time.Duration
}

// poolFor returns the connection pool limits for opts.Driver. SQLite allows
// a single writer, and an in-memory DSN lives only as long as its one
// connection, so that connection is never expired.
func poolFor(opts Options) poolSettings {
	if opts.Driver == DriverSQLite {
		return poolSettings{maxOpen: 1}
	}
	return poolSettings{maxOpen: max(opts.MaxOpenConns, 0), maxIdleTime: 5 * time.Minute}
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver reports the database/sql driver the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) createTables(ctx context.Context) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	floatType := "REAL"
	if s.driver == DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
		floatType = "DOUBLE PRECISION"
	}

	stmts := []struct {
		name string
		sql  string
	}{
		{"devices", `CREATE TABLE IF NOT EXISTS devices (
			id ` + idColumn + `,
			name TEXT NOT NULL,
			ip_address TEXT NOT NULL UNIQUE,
			location TEXT,
			status TEXT,
			detected_at TEXT,
			latitude ` + floatType + `,
			longitude ` + floatType + `
		)`},
		{"activity_logs", `CREATE TABLE IF NOT EXISTS activity_logs (
			id ` + idColumn + `,
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`},
		{"activity_logs index", `CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs(created_at)`},
		{"threat_intelligence", `CREATE TABLE IF NOT EXISTS threat_intelligence (
			ip_address TEXT PRIMARY KEY,
			threat_type TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`},
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt.sql); err != nil {
			return fmt.Errorf("create %s table: %w", stmt.name, err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders into the $n form PostgreSQL expects.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\'' {
			inQuote = !inQuote
		}
		if c == '?' && !inQuote {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
