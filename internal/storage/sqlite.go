package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/serroba/design-studio/internal/canvas"
)

// Schema creates the tables used by SQLiteStore.
const Schema = `
CREATE TABLE IF NOT EXISTS designs (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS design_versions (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL UNIQUE,
	design_id     TEXT NOT NULL REFERENCES designs(id) ON DELETE CASCADE,
	body          TEXT NOT NULL,
	element_count INTEGER NOT NULL,
	created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_design_versions_design ON design_versions(design_id, seq);
`

type sqliteConfig struct {
	busyTimeout int
	synchronous string
	mkdirAll    bool
}

// SQLiteOption customises OpenSQLite.
type SQLiteOption func(*sqliteConfig)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) SQLiteOption { return func(c *sqliteConfig) { c.busyTimeout = ms } }

// WithSynchronous sets PRAGMA synchronous. Default: "NORMAL".
func WithSynchronous(mode string) SQLiteOption {
	return func(c *sqliteConfig) { c.synchronous = mode }
}

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() SQLiteOption { return func(c *sqliteConfig) { c.mkdirAll = true } }

// SQLiteStore persists design records in SQLite. Records are stored as the
// same JSON document that canvas.Record marshals to.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path, applies pragmas and
// the schema. Use ":memory:" for a throwaway database.
func OpenSQLite(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	cfg := sqliteConfig{busyTimeout: 10_000, synchronous: "NORMAL"}
	for _, o := range opts {
		o(&cfg)
	}

	memory := path == ":memory:"

	if cfg.mkdirAll && !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("storage: mkdir: %w", err)
		}
	}

	dsn := path
	if !memory {
		// Pragmas in the DSN apply to every pooled connection.
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, cfg.busyTimeout)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}

	if memory {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		fmt.Sprintf("PRAGMA synchronous = %s", cfg.synchronous),
	}
	if !memory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: exec schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateDesign registers a new design with the given ID.
func (s *SQLiteStore) CreateDesign(ctx context.Context, designID string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO designs (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		designID, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("storage: create design: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: create design: %w", err)
	}

	if n == 0 {
		return ErrDesignExists
	}

	return nil
}

// DesignExists checks if a design exists.
func (s *SQLiteStore) DesignExists(ctx context.Context, designID string) (bool, error) {
	var one int

	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM designs WHERE id = ?`, designID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: design exists: %w", err)
	}

	return true, nil
}

// SaveRecord stores rec as the newest version.
func (s *SQLiteStore) SaveRecord(ctx context.Context, designID string, rec canvas.Record) (string, error) {
	exists, err := s.DesignExists(ctx, designID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrDesignNotFound
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("storage: encode record: %w", err)
	}

	id := uuid.New().String()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO design_versions (id, design_id, body, element_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, designID, string(body), len(rec.Elements), rec.CreatedAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("storage: save record: %w", err)
	}

	return id, nil
}

// LatestRecord returns the newest version.
func (s *SQLiteStore) LatestRecord(ctx context.Context, designID string) (canvas.Record, error) {
	var body string

	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM design_versions WHERE design_id = ? ORDER BY seq DESC LIMIT 1`,
		designID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		exists, existsErr := s.DesignExists(ctx, designID)
		if existsErr != nil {
			return canvas.Record{}, existsErr
		}
		if !exists {
			return canvas.Record{}, ErrDesignNotFound
		}

		return canvas.Record{}, ErrRecordNotFound
	}
	if err != nil {
		return canvas.Record{}, fmt.Errorf("storage: latest record: %w", err)
	}

	var rec canvas.Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return canvas.Record{}, fmt.Errorf("storage: decode record: %w", err)
	}

	return rec, nil
}

// ListVersions returns the saved versions, newest first.
func (s *SQLiteStore) ListVersions(ctx context.Context, designID string) ([]Version, error) {
	exists, err := s.DesignExists(ctx, designID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrDesignNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, element_count, created_at FROM design_versions WHERE design_id = ? ORDER BY seq DESC`,
		designID)
	if err != nil {
		return nil, fmt.Errorf("storage: list versions: %w", err)
	}
	defer rows.Close()

	result := make([]Version, 0)
	for rows.Next() {
		var (
			v       Version
			created int64
		)
		if err := rows.Scan(&v.ID, &v.Elements, &created); err != nil {
			return nil, fmt.Errorf("storage: scan version: %w", err)
		}
		v.DesignID = designID
		v.CreatedAt = time.UnixMilli(created).UTC()
		result = append(result, v)
	}

	return result, rows.Err()
}

// DeleteDesign removes a design and its versions.
func (s *SQLiteStore) DeleteDesign(ctx context.Context, designID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: delete design: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM design_versions WHERE design_id = ?`, designID); err != nil {
		return fmt.Errorf("storage: delete versions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM designs WHERE id = ?`, designID)
	if err != nil {
		return fmt.Errorf("storage: delete design: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: delete design: %w", err)
	}

	if n == 0 {
		return ErrDesignNotFound
	}

	return tx.Commit()
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
