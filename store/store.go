// Package store persists compiled units in SQLite: one row per unit with
// its pool hash and diagnostic counts, plus the unit's constants and
// diagnostics.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/kata/compiler"
	"github.com/chazu/kata/compiler/pool"
)

var log = commonlog.GetLogger("kata.store")

// ErrUnitNotFound indicates the requested unit doesn't exist.
var ErrUnitNotFound = errors.New("unit not found")

const schema = `
CREATE TABLE IF NOT EXISTS units (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	pool_hash  BLOB NOT NULL,
	pool       BLOB NOT NULL,
	errors     INTEGER NOT NULL,
	warnings   INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS constants (
	unit_id TEXT NOT NULL,
	key     INTEGER NOT NULL,
	type    INTEGER NOT NULL,
	value   TEXT NOT NULL,
	PRIMARY KEY (unit_id, key)
);
CREATE TABLE IF NOT EXISTS diagnostics (
	unit_id    TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	severity   INTEGER NOT NULL,
	start_off  INTEGER NOT NULL,
	start_line INTEGER NOT NULL,
	start_col  INTEGER NOT NULL,
	end_off    INTEGER NOT NULL,
	end_line   INTEGER NOT NULL,
	end_col    INTEGER NOT NULL,
	message    TEXT NOT NULL,
	PRIMARY KEY (unit_id, seq)
);
CREATE INDEX IF NOT EXISTS units_name ON units (name);
`

// UnitInfo summarizes a stored unit.
type UnitInfo struct {
	ID       uuid.UUID
	Name     string
	PoolHash [32]byte
	Errors   int
	Warnings int
	Created  time.Time
}

// Store handles SQLite storage for compiled units.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating if needed) the store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	log.Debugf("opened store %s", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveUnit writes unit with its constant pool and diagnostics in one
// transaction. The unit is keyed by its scope ID, so saving the same unit
// again replaces the earlier rows.
func (s *Store) SaveUnit(ctx context.Context, unit *compiler.Unit) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := unit.Scope.ID
	p := pool.FromScope(unit.Scope)
	encoded, err := pool.Marshal(p)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding pool: %w", err)
	}
	hash, err := pool.Hash(p)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hashing pool: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"constants", "diagnostics"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE unit_id = ?", id.String()); err != nil {
			return uuid.Nil, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO units (id, name, pool_hash, pool, errors, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), unit.Name, hash[:], encoded,
		unit.Reporter.NumberOfErrors(), unit.Reporter.NumberOfWarnings(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("saving unit: %w", err)
	}

	for _, e := range p.Entries {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO constants (unit_id, key, type, value) VALUES (?, ?, ?, ?)",
			id.String(), e.Key, int(e.Type), e.Value)
		if err != nil {
			return uuid.Nil, fmt.Errorf("saving constant %d: %w", e.Key, err)
		}
	}

	for i, d := range unit.Reporter.Diagnostics() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO diagnostics (unit_id, seq, severity,
				start_off, start_line, start_col, end_off, end_line, end_col, message)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id.String(), i, int(d.Severity),
			d.Span.Start.Offset, d.Span.Start.Line, d.Span.Start.Column,
			d.Span.End.Offset, d.Span.End.Line, d.Span.End.Column,
			d.Message)
		if err != nil {
			return uuid.Nil, fmt.Errorf("saving diagnostic %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("committing unit: %w", err)
	}
	log.Infof("saved unit %s (%s): %d constants, %d diagnostics",
		unit.Name, id, p.Len(), len(unit.Reporter.Diagnostics()))
	return id, nil
}

// Unit returns the summary of one stored unit.
func (s *Store) Unit(ctx context.Context, id uuid.UUID) (UnitInfo, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, pool_hash, errors, warnings, created_at FROM units WHERE id = ?", id.String())
	info, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return UnitInfo{}, ErrUnitNotFound
	}
	return info, err
}

// Units lists every stored unit, oldest first.
func (s *Store) Units(ctx context.Context) ([]UnitInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, pool_hash, errors, warnings, created_at FROM units ORDER BY created_at, name")
	if err != nil {
		return nil, fmt.Errorf("querying units: %w", err)
	}
	defer rows.Close()

	var units []UnitInfo
	for rows.Next() {
		info, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, info)
	}
	return units, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUnit(row scanner) (UnitInfo, error) {
	var (
		info    UnitInfo
		id      string
		hash    []byte
		created string
	)
	if err := row.Scan(&id, &info.Name, &hash, &info.Errors, &info.Warnings, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UnitInfo{}, err
		}
		return UnitInfo{}, fmt.Errorf("scanning unit: %w", err)
	}
	var err error
	if info.ID, err = uuid.Parse(id); err != nil {
		return UnitInfo{}, fmt.Errorf("unit id %q: %w", id, err)
	}
	if len(hash) != len(info.PoolHash) {
		return UnitInfo{}, fmt.Errorf("unit %s: pool hash has %d bytes", id, len(hash))
	}
	copy(info.PoolHash[:], hash)
	if info.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return UnitInfo{}, fmt.Errorf("unit %s: created_at: %w", id, err)
	}
	return info, nil
}

// LoadPool decodes the stored constant pool of a unit.
func (s *Store) LoadPool(ctx context.Context, id uuid.UUID) (pool.Pool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT pool FROM units WHERE id = ?", id.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pool.Pool{}, ErrUnitNotFound
		}
		return pool.Pool{}, fmt.Errorf("querying pool: %w", err)
	}
	return pool.Unmarshal(data)
}

// LoadConstants returns the constants of a unit in key order.
func (s *Store) LoadConstants(ctx context.Context, id uuid.UUID) ([]compiler.Constant, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, type, value FROM constants WHERE unit_id = ? ORDER BY key", id.String())
	if err != nil {
		return nil, fmt.Errorf("querying constants: %w", err)
	}
	defer rows.Close()

	var constants []compiler.Constant
	for rows.Next() {
		var (
			c   compiler.Constant
			typ int
		)
		if err := rows.Scan(&c.Key, &typ, &c.Value); err != nil {
			return nil, fmt.Errorf("scanning constant: %w", err)
		}
		c.Type = compiler.ConstantType(typ)
		constants = append(constants, c)
	}
	return constants, rows.Err()
}

// LoadDiagnostics returns the diagnostics of a unit in the order they were
// reported.
func (s *Store) LoadDiagnostics(ctx context.Context, id uuid.UUID) ([]compiler.Diagnostic, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT severity, start_off, start_line, start_col, end_off, end_line, end_col, message
		 FROM diagnostics WHERE unit_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return nil, fmt.Errorf("querying diagnostics: %w", err)
	}
	defer rows.Close()

	var diags []compiler.Diagnostic
	for rows.Next() {
		var (
			d   compiler.Diagnostic
			sev int
		)
		err := rows.Scan(&sev,
			&d.Span.Start.Offset, &d.Span.Start.Line, &d.Span.Start.Column,
			&d.Span.End.Offset, &d.Span.End.Line, &d.Span.End.Column,
			&d.Message)
		if err != nil {
			return nil, fmt.Errorf("scanning diagnostic: %w", err)
		}
		d.Severity = compiler.Severity(sev)
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

// Delete removes a unit and everything stored with it.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM units WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("deleting unit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUnitNotFound
	}
	for _, table := range []string{"constants", "diagnostics"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE unit_id = ?", id.String()); err != nil {
			return fmt.Errorf("deleting %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func (s *Store) exists(ctx context.Context, id uuid.UUID) error {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM units WHERE id = ?", id.String()).Scan(&n)
	if err != nil {
		return fmt.Errorf("querying unit: %w", err)
	}
	if n == 0 {
		return ErrUnitNotFound
	}
	return nil
}
