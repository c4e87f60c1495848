// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package latticedb persists Niggli-reduced cell parameters for every
// crystallographic PDB entry and streams them back during a search. The
// database is built offline from a bulk PDB export and is immutable at
// search time.
package latticedb

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/lattice-search/pkg/types"
)

// FreshnessWindow is how old the database may grow before searches start
// suggesting a rebuild. The PDB grows continuously, so a stale database
// silently misses recent depositions.
const FreshnessWindow = 90 * 24 * time.Hour

// Record is one database entry: a 4-character PDB code, an
// alternate-setting marker byte (0 when none), and the Niggli-reduced
// cell parameters stored at double precision.
type Record struct {
	Code string
	Alt  byte
	Cell types.UnitCell
}

// ScanStats summarizes one pass over the database.
type ScanStats struct {
	// Rows is the number of well-formed records visited.
	Rows int

	// Corrupt counts malformed rows that were skipped. A corrupt row
	// never aborts the scan.
	Corrupt int
}

// Store wraps the lattice SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens an existing lattice database for reading. A missing or
// unreadable file is a configuration error reported immediately.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("lattice database: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening lattice database: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Create opens or creates a writable lattice database and ensures the
// schema exists.
func Create(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening lattice database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			code TEXT NOT NULL,
			alt INTEGER NOT NULL DEFAULT 0,
			a REAL NOT NULL,
			b REAL NOT NULL,
			c REAL NOT NULL,
			alpha REAL NOT NULL,
			beta REAL NOT NULL,
			gamma REAL NOT NULL,
			PRIMARY KEY (code, alt)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_a ON entries(a)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Scan streams every record to fn in a single pass. Malformed rows are
// counted and skipped; the handle used by the pass is released before
// Scan returns even when the context is cancelled mid-stream.
func (s *Store) Scan(ctx context.Context, fn func(Record)) (ScanStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, alt, a, b, c, alpha, beta, gamma FROM entries`)
	if err != nil {
		return ScanStats{}, fmt.Errorf("scanning lattice database: %w", err)
	}
	defer rows.Close()

	var stats ScanStats
	for rows.Next() {
		var (
			code sql.NullString
			alt  sql.NullInt64
			p    [6]sql.NullFloat64
		)
		if err := rows.Scan(&code, &alt, &p[0], &p[1], &p[2], &p[3], &p[4], &p[5]); err != nil {
			stats.Corrupt++
			continue
		}
		rec, ok := recordFromRow(code, alt, p)
		if !ok {
			stats.Corrupt++
			continue
		}
		stats.Rows++
		fn(rec)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("scanning lattice database: %w", err)
	}
	return stats, nil
}

// recordFromRow validates a raw row. The code must round-trip as exactly
// four ASCII characters and the cell values must be finite and positive
// lengths with angles in (0, 180).
func recordFromRow(code sql.NullString, alt sql.NullInt64, p [6]sql.NullFloat64) (Record, bool) {
	if !code.Valid || len(code.String) != 4 {
		return Record{}, false
	}
	for _, ch := range code.String {
		if ch > 127 {
			return Record{}, false
		}
	}
	if !alt.Valid || alt.Int64 < 0 || alt.Int64 > 127 {
		return Record{}, false
	}
	var v [6]float64
	for i, f := range p {
		if !f.Valid || math.IsNaN(f.Float64) || math.IsInf(f.Float64, 0) {
			return Record{}, false
		}
		v[i] = f.Float64
	}
	cell, err := types.NewUnitCell(v[0], v[1], v[2], v[3], v[4], v[5])
	if err != nil {
		return Record{}, false
	}
	return Record{Code: code.String, Alt: byte(alt.Int64), Cell: cell}, true
}

// InsertBatch upserts records inside a single transaction. Re-inserting
// a (code, alt) pair replaces the stored cell, which is what the
// incremental update path wants.
func (s *Store) InsertBatch(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO entries (code, alt, a, b, c, alpha, beta, gamma)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		p := rec.Cell.Parameters()
		if _, err := stmt.ExecContext(ctx,
			rec.Code, int64(rec.Alt), p[0], p[1], p[2], p[3], p[4], p[5]); err != nil {
			return fmt.Errorf("inserting entry %s: %w", rec.Code, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}
