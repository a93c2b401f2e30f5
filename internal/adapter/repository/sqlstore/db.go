package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/simaogato/shareledger/internal/config"
)

// Dialect identifies the SQL flavour spoken by the connection
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
	dialect Dialect

	// sellMu serializes sell settlements issued through this store
	sellMu sync.Mutex
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the database described by the storage config and migrates the schema
func Open(ctx context.Context, cfg config.StorageConfig) (*DB, error) {
	var (
		db  *DB
		err error
	)

	switch Dialect(cfg.DBType) {
	case DialectSQLite:
		db, err = NewSQLiteDB(cfg.DBPath)
	case DialectPostgres:
		db, err = NewPostgresDB(cfg.ConnectionString)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DBType)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// NewSQLiteDB opens a SQLite database file
func NewSQLiteDB(path string) (*DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	return &DB{DB: db, dialect: DialectSQLite}, nil
}

// NewPostgresDB creates a new PostgreSQL connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=shareledger sslmode=disable"
func NewPostgresDB(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, dialect: DialectPostgres}, nil
}

// Dialect returns the SQL flavour of the connection
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Migrate creates the ledger tables when missing
func (db *DB) Migrate(ctx context.Context) error {
	statements := sqliteSchema
	if db.dialect == DialectPostgres {
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders into the dialect's bind syntax
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS holdings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		purchase_price TEXT NOT NULL,
		purchase_date TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'sold'))
	)`,
	`CREATE TABLE IF NOT EXISTS sold_shares (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		holding_id INTEGER NOT NULL REFERENCES holdings(id),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		sell_price TEXT NOT NULL,
		sell_date TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sold_shares_holding ON sold_shares(holding_id)`,
	`CREATE TABLE IF NOT EXISTS stock_symbols (
		symbol TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		exchange TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS live_prices (
		symbol TEXT PRIMARY KEY,
		current_price TEXT NOT NULL,
		previous_price TEXT,
		last_updated TEXT NOT NULL
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS holdings (
		id BIGSERIAL PRIMARY KEY,
		symbol TEXT NOT NULL,
		quantity BIGINT NOT NULL CHECK (quantity >= 0),
		purchase_price NUMERIC(20, 6) NOT NULL,
		purchase_date TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'sold'))
	)`,
	`CREATE TABLE IF NOT EXISTS sold_shares (
		id BIGSERIAL PRIMARY KEY,
		holding_id BIGINT NOT NULL REFERENCES holdings(id),
		quantity BIGINT NOT NULL CHECK (quantity > 0),
		sell_price NUMERIC(20, 6) NOT NULL,
		sell_date TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sold_shares_holding ON sold_shares(holding_id)`,
	`CREATE TABLE IF NOT EXISTS stock_symbols (
		symbol TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		exchange TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS live_prices (
		symbol TEXT PRIMARY KEY,
		current_price NUMERIC(20, 6) NOT NULL,
		previous_price NUMERIC(20, 6),
		last_updated TEXT NOT NULL
	)`,
}
