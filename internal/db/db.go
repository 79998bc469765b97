// Package db wraps relational storage for the shelfsim-api service.
package db

// File: internal/db/db.go
// Purpose: Store construction, schema bootstrap and driver error mapping.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Driver names accepted by Open.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

var (
	// ErrNotFound is returned by mutations whose target row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert collides with an existing key.
	ErrDuplicate = errors.New("already exists")
	// ErrForeignKey is returned when a referenced parent row is missing.
	ErrForeignKey = errors.New("foreign key violation")
)

// Store wraps a sql.DB and exposes book/layout/run/job queries.
type Store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the clock used for created_at columns.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open connects with the given driver, verifies connectivity and ensures the schema exists.
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	if driver != DriverMySQL && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	s := &Store{db: db, driver: driver, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Health performs a ping to validate database connectivity.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) initSchema(ctx context.Context) error {
	stmts := mysqlSchema
	if s.driver == DriverSQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id BIGINT NOT NULL PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		author VARCHAR(200) NULL,
		thickness_mm INT NOT NULL,
		height_mm INT NOT NULL,
		sku VARCHAR(50) NULL,
		created_at BIGINT NOT NULL,
		INDEX idx_books_title (title)
	)`,
	`CREATE TABLE IF NOT EXISTS layouts (
		layout_id VARCHAR(100) NOT NULL PRIMARY KEY,
		schema_version VARCHAR(20) NOT NULL DEFAULT '1.0',
		type VARCHAR(50) NOT NULL DEFAULT 'cells_layout',
		grid_size_x INT NOT NULL,
		grid_size_y INT NOT NULL,
		warehouse_x INT NOT NULL,
		warehouse_y INT NOT NULL,
		cells_json LONGTEXT NOT NULL,
		cell_count INT NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		INDEX idx_layouts_created_at (created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		layout_id VARCHAR(100) NULL,
		random_seed INT NOT NULL,
		handle_time_sec DOUBLE NOT NULL,
		robot_speed_cells_per_sec DOUBLE NOT NULL,
		top_n INT NOT NULL,
		move_timeout_sec DOUBLE NOT NULL,
		status VARCHAR(20) NOT NULL,
		summary TEXT NULL,
		created_at BIGINT NOT NULL,
		INDEX idx_runs_status (status),
		INDEX idx_runs_layout_id (layout_id),
		CONSTRAINT chk_runs_status CHECK (status IN ('PENDING','RUNNING','COMPLETED','FAILED'))
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		run_id BIGINT NOT NULL,
		action VARCHAR(10) NOT NULL,
		cell_code VARCHAR(10) NOT NULL,
		book_title VARCHAR(200) NULL,
		quantity INT NOT NULL,
		start_ts BIGINT NULL,
		end_ts BIGINT NULL,
		travel_time_sec DOUBLE NULL,
		handle_time_sec DOUBLE NULL,
		total_time_sec DOUBLE NULL,
		path_length_cells INT NULL,
		result VARCHAR(20) NULL,
		fail_reason VARCHAR(500) NULL,
		error_code VARCHAR(50) NULL,
		robot_name VARCHAR(50) NULL,
		INDEX idx_jobs_run_cell (run_id, cell_code),
		CONSTRAINT fk_jobs_run FOREIGN KEY (run_id) REFERENCES runs (id) ON DELETE CASCADE,
		CONSTRAINT chk_jobs_action CHECK (action IN ('PUT','PICK'))
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT,
		thickness_mm INTEGER NOT NULL,
		height_mm INTEGER NOT NULL,
		sku TEXT,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_books_title ON books(title)`,
	`CREATE TABLE IF NOT EXISTS layouts (
		layout_id TEXT PRIMARY KEY,
		schema_version TEXT NOT NULL DEFAULT '1.0',
		type TEXT NOT NULL DEFAULT 'cells_layout',
		grid_size_x INTEGER NOT NULL,
		grid_size_y INTEGER NOT NULL,
		warehouse_x INTEGER NOT NULL,
		warehouse_y INTEGER NOT NULL,
		cells_json TEXT NOT NULL,
		cell_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_layouts_created_at ON layouts(created_at)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		layout_id TEXT,
		random_seed INTEGER NOT NULL,
		handle_time_sec REAL NOT NULL,
		robot_speed_cells_per_sec REAL NOT NULL,
		top_n INTEGER NOT NULL,
		move_timeout_sec REAL NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('PENDING','RUNNING','COMPLETED','FAILED')),
		summary TEXT,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_layout_id ON runs(layout_id)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		action TEXT NOT NULL CHECK (action IN ('PUT','PICK')),
		cell_code TEXT NOT NULL,
		book_title TEXT,
		quantity INTEGER NOT NULL,
		start_ts INTEGER,
		end_ts INTEGER,
		travel_time_sec REAL,
		handle_time_sec REAL,
		total_time_sec REAL,
		path_length_cells INTEGER,
		result TEXT,
		fail_reason TEXT,
		error_code TEXT,
		robot_name TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_run_cell ON jobs(run_id, cell_code)`,
}

// pageOffset returns the row offset of a 1-based page. ok is false when the
// offset does not fit in an int, which means the page lies past any stored row.
func pageOffset(page, pageSize int) (offset int, ok bool) {
	if page < 1 || pageSize < 1 {
		return 0, true
	}
	if page-1 > math.MaxInt/pageSize {
		return 0, false
	}
	return (page - 1) * pageSize, true
}

// mapError converts driver constraint failures into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case 1452:
			return fmt.Errorf("%w: %v", ErrForeignKey, err)
		}
		return err
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code&0xff != sqlite3.SQLITE_CONSTRAINT {
			return err
		}
		msg := liteErr.Error()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY || strings.Contains(msg, "FOREIGN KEY"):
			return fmt.Errorf("%w: %v", ErrForeignKey, err)
		case code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || strings.Contains(msg, "UNIQUE"):
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
	}
	return err
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullableMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toMillis(*t)
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func timeFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func stringFromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func floatFromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

type scanner interface {
	Scan(dest ...any) error
}
