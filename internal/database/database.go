package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// busyTimeout is how long, in milliseconds, a connection waits on a locked
// database. The scheduled sync writes while the site is serving reads.
const busyTimeout = 5000

// DB wraps the SQLite connection pool holding collected notes, sync runs and
// stored preferences.
type DB struct {
	conn   *sql.DB
	path   string
	logger *zap.Logger
}

// Option configures Open.
type Option func(*DB)

// WithLogger sets the logger used for migrations and preference errors.
func WithLogger(logger *zap.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// dsn applies the connection pragmas through the driver's _pragma parameter
// so that every pooled connection gets them, not just the first.
func dsn(dbPath string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	return dbPath + "?" + q.Encode()
}

// Open creates or opens the homepage database at dbPath and brings its
// schema up to date.
func Open(dbPath string, opts ...Option) (*DB, error) {
	db := &DB{path: dbPath, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(db)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to %s: %w", dbPath, err)
	}

	if err := migrate(conn, db.logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	db.conn = conn
	db.logger.Debug("database ready", zap.String("path", dbPath))
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}
