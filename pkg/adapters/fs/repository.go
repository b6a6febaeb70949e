package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/aretw0/arbor/pkg/core"
	"github.com/aretw0/arbor/pkg/git"
)

// Store implements core.Store on a single JSON or YAML file, optionally
// versioned with Git.
type Store struct {
	Path       string
	config     Config
	serializer Serializer
	git        *git.Client

	writeMu sync.Mutex // one save in flight at a time

	mu            sync.RWMutex
	fingerprint   uint64
	present       bool
	saves         int
	lastSave      *time.Time
	watcherActive bool
	skipped       []core.Issue
}

// Config holds the configuration for the file store.
type Config struct {
	Path       string
	Logger     *slog.Logger
	Versioning bool // commit every save to a Git repository in the file's directory
	AutoInit   bool // git init the directory when Versioning is on and no repository exists
	Serializer Serializer
	Perm       os.FileMode
	// ErrorHandler receives runtime watcher errors that are otherwise only logged.
	ErrorHandler func(error)
}

// NewStore creates a file-backed store. The format is picked from the file
// extension unless Config.Serializer is set.
func NewStore(config Config) (*Store, error) {
	if config.Path == "" {
		return nil, errors.New("notes file path is empty")
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Perm == 0 {
		config.Perm = 0644
	}

	serializer := config.Serializer
	if serializer == nil {
		ext := strings.ToLower(filepath.Ext(config.Path))
		if ext == "" {
			ext = ".json"
		}
		s, ok := DefaultSerializers()[ext]
		if !ok {
			return nil, fmt.Errorf("unsupported notes file extension %q", ext)
		}
		serializer = s
	}

	return &Store{
		Path:       config.Path,
		config:     config,
		serializer: serializer,
		git:        git.NewClient(filepath.Dir(config.Path), "", config.Logger),
	}, nil
}

// Initialize prepares the directory and, when versioning, the Git repository.
func (s *Store) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to create notes directory: %w", err)
	}
	if !s.config.Versioning {
		return nil
	}
	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}
	if s.git.IsRepo() {
		return nil
	}
	if !s.config.AutoInit {
		return fmt.Errorf("path is not a git repository: %s", filepath.Dir(s.Path))
	}
	if err := s.git.Init(); err != nil {
		return fmt.Errorf("failed to git init: %w", err)
	}
	return nil
}

// Load reads the whole collection. A missing or empty file is an empty
// collection; an undecodable one is a *core.CorruptStoreError.
func (s *Store) Load(ctx context.Context) ([]core.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		s.remember(nil, false)
		s.setSkipped(nil)
		return []core.Note{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read notes file: %w", err)
	}
	s.remember(data, true)

	notes, skipped, err := s.serializer.Parse(data)
	if err != nil {
		s.setSkipped(nil)
		return nil, &core.CorruptStoreError{Path: s.Path, Err: err}
	}
	s.setSkipped(skipped)
	if notes == nil {
		notes = []core.Note{}
	}
	for _, issue := range skipped {
		s.config.Logger.Warn("unreadable note record skipped", "path", s.Path, "problem", issue.String())
	}
	s.config.Logger.Debug("notes loaded", "path", s.Path, "count", len(notes), "skipped", len(skipped))
	return notes, nil
}

// Skipped returns the records the last Load could not decode.
func (s *Store) Skipped() []core.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.skipped)
}

func (s *Store) setSkipped(issues []core.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped = issues
}

// Save serializes the collection and replaces the file atomically.
//
// Workflow:
//  1. Serialize the full collection.
//  2. Write to a temp file in the same directory, fsync, rename over the target.
//  3. (If versioning) 'git add' and 'git commit' with the change reason from ctx.
func (s *Store) Save(ctx context.Context, notes []core.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := s.serializer.Serialize(notes)
	if err != nil {
		return fmt.Errorf("failed to serialize notes: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to create notes directory: %w", err)
	}

	// Remember the new content before the rename lands so the watcher never
	// mistakes our own write for an external one.
	prevFingerprint, prevPresent := s.current()
	s.remember(data, true)
	if err := writeFileAtomic(s.Path, data, s.config.Perm); err != nil {
		s.restore(prevFingerprint, prevPresent)
		return fmt.Errorf("failed to write notes file: %w", err)
	}
	s.recordSave()

	if s.config.Versioning {
		if err := s.commit(ctx); err != nil {
			return err
		}
	}
	s.config.Logger.Debug("notes saved", "path", s.Path, "count", len(notes), "bytes", len(data))
	return nil
}

func (s *Store) commit(ctx context.Context) error {
	unlock, err := s.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	name := filepath.Base(s.Path)
	changed, err := s.git.HasChanges(name)
	if err != nil {
		return fmt.Errorf("failed to git status: %w", err)
	}
	if !changed {
		return nil
	}
	if err := s.git.Add(name); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}

	msg := git.FormatMessage(git.CommitTypeDocs, "notes", "update "+name, "")
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = git.WithFooter(val)
	}
	if err := s.git.Commit(msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// Preserve copies the current file to a timestamped sibling so a corrupt
// payload survives the next save. It returns "" when there is no file.
func (s *Store) Preserve(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(s.Path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	backup := fmt.Sprintf("%s.corrupt-%s", s.Path, time.Now().UTC().Format("20060102T150405.000000000Z"))
	if err := copyFile(s.Path, backup, s.config.Perm); err != nil {
		return "", fmt.Errorf("failed to preserve notes file: %w", err)
	}
	s.config.Logger.Warn("corrupt notes file preserved", "path", s.Path, "backup", backup)
	return backup, nil
}

// Changed reports whether the file differs from what the store last read or wrote.
func (s *Store) Changed() (bool, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		_, present := s.current()
		return present, nil
	}
	if err != nil {
		return false, err
	}
	fingerprint, present := s.current()
	return !present || xxhash.Sum64(data) != fingerprint, nil
}

func (s *Store) remember(data []byte, present bool) {
	var fingerprint uint64
	if present {
		fingerprint = xxhash.Sum64(data)
	}
	s.restore(fingerprint, present)
}

func (s *Store) restore(fingerprint uint64, present bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fingerprint = fingerprint
	s.present = present
}

func (s *Store) current() (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fingerprint, s.present
}

func (s *Store) recordSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.saves++
	s.lastSave = &now
}

var (
	_ core.Store        = (*Store)(nil)
	_ core.Preserver    = (*Store)(nil)
	_ core.Watchable    = (*Store)(nil)
	_ core.LoadReporter = (*Store)(nil)
)
