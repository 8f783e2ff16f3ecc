// Package state persists the changelog index in SQLite.
//
// The index is a queryable mirror of the fragment tree: which tickets and
// tags each fragment carries, plus the cut releases. It is rebuilt wholesale
// by the index command and read by show, query and the preview server.
package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/relnote-labs/relnote/pkg/core"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = fmt.Errorf("not found")

// SQLiteStore implements core.Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new store instance. Call Open before use.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens the SQLite database and runs pending migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open index database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping index database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying connection for the query command.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// --- Index runs ---

// BeginIndexRun starts a new index run.
func (s *SQLiteStore) BeginIndexRun() (*core.IndexRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.IndexRun{
		ID:        generateID(),
		Status:    core.IndexRunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO index_runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create index run: %w", err)
	}
	return run, nil
}

// FinishIndexRun marks a run completed, or failed when runErr is non-nil.
func (s *SQLiteStore) FinishIndexRun(run *core.IndexRun, count int, runErr error) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	run.CompletedAt = &now
	run.Fragments = count
	run.Status = core.IndexRunCompleted
	if runErr != nil {
		run.Status = core.IndexRunFailed
		run.Error = runErr.Error()
	}

	_, err := s.db.Exec(
		`UPDATE index_runs SET status = ?, fragments = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(run.Status), run.Fragments, now, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish index run: %w", err)
	}
	return nil
}

// --- Fragments ---

// ReplaceFragments atomically replaces all unreleased fragment rows.
func (s *SQLiteStore) ReplaceFragments(frags []*core.IndexedFragment) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM fragments WHERE released = ''`); err != nil {
		return fmt.Errorf("failed to clear fragments: %w", err)
	}

	for _, f := range frags {
		if f.ID == "" {
			f.ID = generateID()
		}
		if f.Indexed.IsZero() {
			f.Indexed = time.Now().UTC()
		}
		_, err := tx.Exec(
			`INSERT INTO fragments (id, path, series, title, body, hash, released, indexed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.Path, f.Series, f.Title, f.Body, f.Hash, f.Released, f.Indexed,
		)
		if err != nil {
			return fmt.Errorf("failed to insert fragment %s: %w", f.Path, err)
		}
		for i, tag := range f.Tags {
			if _, err := tx.Exec(
				`INSERT INTO fragment_tags (fragment_id, position, tag) VALUES (?, ?, ?)`,
				f.ID, i, tag,
			); err != nil {
				return fmt.Errorf("failed to insert tag for %s: %w", f.Path, err)
			}
		}
		for i, ticket := range f.Tickets {
			if _, err := tx.Exec(
				`INSERT INTO fragment_tickets (fragment_id, position, ticket) VALUES (?, ?, ?)`,
				f.ID, i, ticket,
			); err != nil {
				return fmt.Errorf("failed to insert ticket for %s: %w", f.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fragments: %w", err)
	}
	return nil
}

// FragmentsByTicket returns fragments referencing the ticket, in path order.
func (s *SQLiteStore) FragmentsByTicket(ticket int) ([]*core.IndexedFragment, error) {
	return s.queryFragments(
		`SELECT DISTINCT f.id, f.path, f.series, f.title, f.body, f.hash, f.released, f.indexed_at
		 FROM fragments f JOIN fragment_tickets t ON t.fragment_id = f.id
		 WHERE t.ticket = ? ORDER BY f.path`, ticket)
}

// FragmentsByTag returns fragments carrying the tag, in path order.
func (s *SQLiteStore) FragmentsByTag(tag string) ([]*core.IndexedFragment, error) {
	return s.queryFragments(
		`SELECT DISTINCT f.id, f.path, f.series, f.title, f.body, f.hash, f.released, f.indexed_at
		 FROM fragments f JOIN fragment_tags t ON t.fragment_id = f.id
		 WHERE t.tag = ? ORDER BY f.path`, tag)
}

func (s *SQLiteStore) queryFragments(query string, args ...any) ([]*core.IndexedFragment, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fragments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*core.IndexedFragment
	for rows.Next() {
		f := &core.IndexedFragment{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Series, &f.Title, &f.Body, &f.Hash, &f.Released, &f.Indexed); err != nil {
			return nil, fmt.Errorf("failed to scan fragment: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, f := range out {
		if err := s.loadFragmentLists(f); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStore) loadFragmentLists(f *core.IndexedFragment) error {
	rows, err := s.db.Query(`SELECT tag FROM fragment_tags WHERE fragment_id = ? ORDER BY position`, f.ID)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return err
		}
		f.Tags = append(f.Tags, tag)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	trows, err := s.db.Query(`SELECT ticket FROM fragment_tickets WHERE fragment_id = ? ORDER BY position`, f.ID)
	if err != nil {
		return fmt.Errorf("failed to load tickets: %w", err)
	}
	defer func() { _ = trows.Close() }()
	for trows.Next() {
		var ticket int
		if err := trows.Scan(&ticket); err != nil {
			return err
		}
		f.Tickets = append(f.Tickets, ticket)
	}
	return trows.Err()
}

// --- Releases ---

// RecordRelease records a cut release.
func (s *SQLiteStore) RecordRelease(rel *core.Release) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	created := rel.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO releases (version, date, series, created_at) VALUES (?, ?, ?, ?)`,
		rel.Version, rel.Date, rel.Series, created,
	)
	if err != nil {
		return fmt.Errorf("failed to record release: %w", err)
	}
	return nil
}

// Releases returns all recorded releases, newest first.
func (s *SQLiteStore) Releases() ([]*core.Release, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`SELECT version, date, series, created_at FROM releases ORDER BY created_at DESC, version DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*core.Release
	for rows.Next() {
		r := &core.Release{}
		if err := rows.Scan(&r.Version, &r.Date, &r.Series, &r.Created); err != nil {
			return nil, fmt.Errorf("failed to scan release: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// compile-time interface check
var _ core.Store = (*SQLiteStore)(nil)
