package crm

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

//go:embed fans.json
var seedFans []byte

const (
	defaultBusyTimeout = 5000 // milliseconds
	schemaVersion      = 1
)

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS fans (
		id                 TEXT PRIMARY KEY,
		first_name         TEXT NOT NULL,
		last_name          TEXT NOT NULL,
		city               TEXT NOT NULL,
		state              TEXT NOT NULL,
		genres             TEXT NOT NULL DEFAULT '[]',
		last_purchase_date TEXT NOT NULL,
		total_spent        REAL NOT NULL DEFAULT 0,
		email_open_rate    REAL NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_fans_city ON fans(city)`,
}

// Store is the SQLite-backed fan CRM.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the CRM database at the given path and returns a
// Store backed by it, along with the underlying handle so other components
// can share the same database file. The caller closes the *sql.DB when done.
//
// The database uses WAL mode, a 5 s busy timeout, and a single connection
// (SQLite serialises writes). The schema is migrated automatically, and an
// empty fans table is seeded from the embedded dataset.
func Open(path string) (*Store, *sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("crm: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("crm: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("crm: enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("crm: set busy_timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	store := &Store{db: db}
	if err := store.seed(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return store, db, nil
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(db *sql.DB) error {
	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("crm: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("crm: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("crm: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("crm: record schema version: %w", err)
	}

	return nil
}

// seed populates an empty fans table from the embedded dataset.
func (s *Store) seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fans").Scan(&count); err != nil {
		return fmt.Errorf("crm: count fans: %w", err)
	}
	if count > 0 {
		return nil
	}

	var fans []Fan
	if err := json.Unmarshal(seedFans, &fans); err != nil {
		return fmt.Errorf("crm: parse seed data: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("crm: begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, fan := range fans {
		genres, err := json.Marshal(fan.Genres)
		if err != nil {
			return fmt.Errorf("crm: encode genres for %s: %w", fan.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fans (id, first_name, last_name, city, state, genres, last_purchase_date, total_spent, email_open_rate)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fan.ID, fan.FirstName, fan.LastName, fan.City, fan.State,
			string(genres), fan.LastPurchaseDate, fan.TotalSpent, fan.EmailOpenRate,
		); err != nil {
			return fmt.Errorf("crm: seed fan %s: %w", fan.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("crm: commit seed: %w", err)
	}
	return nil
}

// ListFans returns every fan in the CRM.
func (s *Store) ListFans(ctx context.Context) ([]Fan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, first_name, last_name, city, state, genres, last_purchase_date, total_spent, email_open_rate
		 FROM fans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("crm: list fans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fans []Fan
	for rows.Next() {
		var fan Fan
		var genres string
		if err := rows.Scan(&fan.ID, &fan.FirstName, &fan.LastName, &fan.City, &fan.State,
			&genres, &fan.LastPurchaseDate, &fan.TotalSpent, &fan.EmailOpenRate); err != nil {
			return nil, fmt.Errorf("crm: scan fan: %w", err)
		}
		if err := json.Unmarshal([]byte(genres), &fan.Genres); err != nil {
			return nil, fmt.Errorf("crm: decode genres for %s: %w", fan.ID, err)
		}
		fans = append(fans, fan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("crm: list fans: %w", err)
	}
	return fans, nil
}

// CountFans returns the number of fans in the CRM.
func (s *Store) CountFans(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fans`).Scan(&n); err != nil {
		return 0, fmt.Errorf("crm: count fans: %w", err)
	}
	return n, nil
}

// FilterFans applies the filter against the full fan set and returns the
// matching segment. Recency is evaluated against the current time.
func (s *Store) FilterFans(ctx context.Context, f Filter) (Segment, error) {
	fans, err := s.ListFans(ctx)
	if err != nil {
		return Segment{}, err
	}
	return BuildSegment(fans, f, time.Now()), nil
}
