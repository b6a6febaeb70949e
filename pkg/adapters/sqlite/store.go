// Package sqlite stores the note collection in a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aretw0/arbor/pkg/core"
)

// SchemaVersion is stored in PRAGMA user_version.
const SchemaVersion = 1

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("sqlite store is closed")

const schema = `
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '[]',
    parent_id TEXT,
    position REAL NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_parent ON notes(parent_id, position);
`

// Store implements core.Store on a SQLite database file.
type Store struct {
	Path   string
	logger *slog.Logger

	mu       sync.Mutex
	db       *sql.DB
	saves    int
	lastSave *time.Time
	skipped  []core.Issue
	// readable is set by a Load that got past the schema and the query.
	readable bool
}

// Config holds the configuration for the SQLite store.
type Config struct {
	Path   string
	Logger *slog.Logger
}

// NewStore opens (lazily) the database at config.Path. The schema is created
// on first use, so a foreign file is only detected by Load or Save.
func NewStore(config Config) (*Store, error) {
	if config.Path == "" {
		return nil, errors.New("database path is empty")
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{Path: config.Path, logger: config.Logger}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) open() error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", s.Path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// One writer; no idle connections so the file can be moved by Preserve.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)
	s.db = db
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("unsupported schema version %d (max %d)", version, SchemaVersion)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	if version < SchemaVersion {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads every note. A database that cannot be read as SQLite produces a
// *core.CorruptStoreError; single rows that cannot be decoded are skipped and
// reported by Skipped.
func (s *Store) Load(ctx context.Context) ([]core.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	s.readable = false
	s.skipped = nil

	if err := s.initSchema(ctx); err != nil {
		return nil, s.classify("init schema", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, tags, parent_id, position, created_at, updated_at
		FROM notes ORDER BY rowid`)
	if err != nil {
		return nil, s.classify("query notes", err)
	}
	defer rows.Close()

	notes := []core.Note{}
	var skipped []core.Issue
	for row := 0; rows.Next(); row++ {
		n, err := scanNote(rows)
		if err != nil {
			issue := core.Issue{ID: n.ID, Problem: fmt.Sprintf("row %d skipped: %v", row, err)}
			s.logger.Warn("unreadable note row skipped", "path", s.Path, "problem", issue.String())
			skipped = append(skipped, issue)
			continue
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("scan notes", err)
	}
	s.readable = true
	s.skipped = skipped
	s.logger.Debug("notes loaded", "path", s.Path, "count", len(notes), "skipped", len(skipped))
	return notes, nil
}

// Skipped returns the rows the last Load could not decode.
func (s *Store) Skipped() []core.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.skipped)
}

func scanNote(rows *sql.Rows) (core.Note, error) {
	var (
		n                core.Note
		tags             string
		parent           sql.NullString
		created, updated string
	)
	if err := rows.Scan(&n.ID, &n.Title, &n.Content, &tags, &parent, &n.Order, &created, &updated); err != nil {
		return n, err
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return n, fmt.Errorf("tags: %w", err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	n.ParentID = parent.String

	var err error
	if n.CreatedAt, err = parseTime(created); err != nil {
		return n, fmt.Errorf("created_at: %w", err)
	}
	if n.UpdatedAt, err = parseTime(updated); err != nil {
		return n, fmt.Errorf("updated_at: %w", err)
	}
	return n, nil
}

// Save replaces the whole table inside one transaction.
func (s *Store) Save(ctx context.Context, notes []core.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	if err := s.initSchema(ctx); err != nil {
		return s.classify("init schema", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM notes"); err != nil {
		return fmt.Errorf("clear notes: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO notes (id, title, content, tags, parent_id, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range notes {
		tags := n.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("note %s: encode tags: %w", n.ID, err)
		}
		var parent sql.NullString
		if n.ParentID != "" {
			parent = sql.NullString{String: n.ParentID, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			n.ID, n.Title, n.Content, string(tagsJSON), parent, n.Order,
			formatTime(n.CreatedAt), formatTime(n.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert note %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	now := time.Now()
	s.saves++
	s.lastSave = &now
	s.logger.Debug("notes saved", "path", s.Path, "count", len(notes))
	return nil
}

// Preserve keeps the current database in a timestamped sibling. After a Load
// that only skipped rows the database is copied with VACUUM INTO, so the
// readable notes stay in place. An unreadable database is moved aside and an
// empty one is reopened in its place. It returns "" when there is no file.
func (s *Store) Preserve(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return "", ErrClosed
	}

	if _, err := os.Stat(s.Path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	backup := fmt.Sprintf("%s.corrupt-%s", s.Path, time.Now().UTC().Format("20060102T150405.000000000Z"))
	if s.readable {
		if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", backup); err != nil {
			return "", fmt.Errorf("failed to copy database: %w", err)
		}
		s.logger.Warn("database with unreadable rows copied", "path", s.Path, "backup", backup)
		return backup, nil
	}

	if err := s.db.Close(); err != nil {
		return "", fmt.Errorf("close database: %w", err)
	}
	renameErr := os.Rename(s.Path, backup)
	if renameErr == nil {
		for _, suffix := range []string{"-wal", "-shm"} {
			_ = os.Remove(s.Path + suffix)
		}
	}
	if err := s.open(); err != nil {
		return "", err
	}
	if renameErr != nil {
		return "", fmt.Errorf("failed to preserve database: %w", renameErr)
	}
	s.logger.Warn("corrupt database preserved", "path", s.Path, "backup", backup)
	return backup, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// classify wraps err, turning "this is not a database" into a
// *core.CorruptStoreError.
func (s *Store) classify(op string, err error) error {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() & 0xff {
		case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
			return &core.CorruptStoreError{Path: s.Path, Err: err}
		}
	}
	// Errors raised while the driver applies connection pragmas are not always typed.
	if msg := err.Error(); strings.Contains(msg, "not a database") || strings.Contains(msg, "malformed") {
		return &core.CorruptStoreError{Path: s.Path, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

var (
	_ core.Store        = (*Store)(nil)
	_ core.Preserver    = (*Store)(nil)
	_ core.Closer       = (*Store)(nil)
	_ core.LoadReporter = (*Store)(nil)
)
