package core

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DeletePolicy decides what happens to the children of a deleted note.
type DeletePolicy int

const (
	// ReparentChildren promotes the direct children of the deleted note to
	// its parent (or to the root level).
	ReparentChildren DeletePolicy = iota
	// DeleteSubtree removes the note together with all of its descendants.
	DeleteSubtree
)

// DefaultDeletePolicy is applied when a caller does not choose one.
const DefaultDeletePolicy = ReparentChildren

func (p DeletePolicy) String() string {
	switch p {
	case ReparentChildren:
		return "reparent"
	case DeleteSubtree:
		return "subtree"
	default:
		return fmt.Sprintf("DeletePolicy(%d)", int(p))
	}
}

// ParseDeletePolicy maps "reparent" or "subtree" to a policy.
// An empty string yields DefaultDeletePolicy.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch s {
	case "":
		return DefaultDeletePolicy, nil
	case "reparent":
		return ReparentChildren, nil
	case "subtree":
		return DeleteSubtree, nil
	default:
		return 0, fmt.Errorf("unknown delete policy %q (want reparent or subtree)", s)
	}
}

// CreateInput carries the fields of a new note.
type CreateInput struct {
	ParentID string
	Title    string
	Content  string
	Tags     []string
}

// Snapshot is a point-in-time copy of the collection to be persisted.
type Snapshot struct {
	Notes      []Note
	Generation uint64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces the time source (useful for testing).
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator replaces the id source. Defaults to random UUIDs.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithEventSink registers a channel that receives change events.
// Sends never block; events are dropped when the channel is full.
func WithEventSink(ch chan<- Event) ServiceOption {
	return func(s *Service) {
		s.events = ch
	}
}

// Service is the command controller: the only component allowed to mutate
// the note collection. Every command validates before it mutates, so a
// failing command leaves the collection untouched.
type Service struct {
	mu         sync.RWMutex
	notes      map[string]*Note
	index      *Index
	generation uint64
	saved      uint64
	last       time.Time
	issues     []Issue

	logger *slog.Logger
	clock  func() time.Time
	newID  func() string
	events chan<- Event
}

// NewService creates a Service over a loaded collection. The collection is
// sanitized first; repairs are logged and available through Issues.
func NewService(notes []Note, opts ...ServiceOption) *Service {
	s := &Service{
		logger: slog.New(slog.DiscardHandler),
		clock:  time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.replace(notes)
	return s
}

func (s *Service) replace(notes []Note) {
	clean, issues := SanitizeWithIDs(notes, s.newID)
	for _, issue := range issues {
		s.logger.Warn("repaired note record", "id", issue.ID, "problem", issue.Problem)
	}
	s.issues = issues
	s.notes = make(map[string]*Note, len(clean))
	for i := range clean {
		n := clean[i]
		s.notes[n.ID] = &n
		if n.UpdatedAt.After(s.last) {
			s.last = n.UpdatedAt
		}
	}
	s.index = newIndex(s.notes)
}

// Issues returns the repairs applied to the most recently loaded collection.
func (s *Service) Issues() []Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.issues)
}

// Create adds a new note at the end of its parent's (or the root) sibling order.
func (s *Service) Create(ctx context.Context, in CreateInput) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ParentID != "" && !s.index.Has(in.ParentID) {
		return Note{}, &ParentNotFoundError{ParentID: in.ParentID}
	}
	id, err := s.uniqueID()
	if err != nil {
		return Note{}, err
	}
	n, err := NewNote(id, in.Title, in.Content, in.Tags, s.stamp(time.Time{}))
	if err != nil {
		return Note{}, err
	}
	n.ParentID = in.ParentID
	n.Order = s.index.NextOrder(in.ParentID)

	s.notes[n.ID] = &n
	s.changed(EventCreate, n.ID)
	return n.Clone(), nil
}

// Rename sets a new title. Renaming to the current title still refreshes UpdatedAt.
func (s *Service) Rename(ctx context.Context, id, title string) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.lookup(id)
	if err != nil {
		return Note{}, err
	}
	t, err := ValidateTitle(title)
	if err != nil {
		return Note{}, err
	}
	n.Title = t
	n.UpdatedAt = s.stamp(n.UpdatedAt)
	s.changed(EventModify, id)
	return n.Clone(), nil
}

// Edit replaces the content and the tag set of a note.
func (s *Service) Edit(ctx context.Context, id, content string, tags []string) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.lookup(id)
	if err != nil {
		return Note{}, err
	}
	normalized, err := NormalizeTags(tags)
	if err != nil {
		return Note{}, err
	}
	n.Content = content
	n.Tags = normalized
	n.UpdatedAt = s.stamp(n.UpdatedAt)
	s.changed(EventModify, id)
	return n.Clone(), nil
}

// AddTag adds a single tag. Adding a tag the note already carries is a no-op.
func (s *Service) AddTag(ctx context.Context, id, tag string) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.lookup(id)
	if err != nil {
		return Note{}, err
	}
	t, err := NormalizeTag(tag)
	if err != nil {
		return Note{}, err
	}
	if n.HasTag(t) {
		return n.Clone(), nil
	}
	n.Tags = append(n.Tags, t)
	slices.Sort(n.Tags)
	n.UpdatedAt = s.stamp(n.UpdatedAt)
	s.changed(EventModify, id)
	return n.Clone(), nil
}

// RemoveTag removes a single tag, case-insensitively. Removing a tag the
// note does not carry is a no-op.
func (s *Service) RemoveTag(ctx context.Context, id, tag string) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.lookup(id)
	if err != nil {
		return Note{}, err
	}
	t, err := NormalizeTag(tag)
	if err != nil {
		return Note{}, err
	}
	i, found := slices.BinarySearch(n.Tags, t)
	if !found {
		return n.Clone(), nil
	}
	n.Tags = slices.Delete(n.Tags, i, i+1)
	n.UpdatedAt = s.stamp(n.UpdatedAt)
	s.changed(EventModify, id)
	return n.Clone(), nil
}

// Move reparents a note, placing it last among its new siblings.
// An empty parent moves the note to the root level.
func (s *Service) Move(ctx context.Context, id, parent string) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.lookup(id)
	if err != nil {
		return Note{}, err
	}
	if parent != "" && !s.index.Has(parent) {
		return Note{}, &NotFoundError{ID: parent}
	}
	if err := s.index.CheckMove(id, parent); err != nil {
		return Note{}, err
	}
	n.Order = s.index.NextOrder(parent)
	n.ParentID = parent
	n.UpdatedAt = s.stamp(n.UpdatedAt)
	s.changed(EventMove, id)
	return n.Clone(), nil
}

// Delete removes a note and applies policy to its children.
// It returns the ids of every removed note.
func (s *Service) Delete(ctx context.Context, id string, policy DeletePolicy) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	removed := []string{id}
	switch policy {
	case ReparentChildren:
		base := s.index.NextOrder(n.ParentID)
		for i, childID := range s.index.children[id] {
			child := s.notes[childID]
			child.ParentID = n.ParentID
			child.Order = base + float64(i)
			child.UpdatedAt = s.stamp(child.UpdatedAt)
		}
	case DeleteSubtree:
		removed = append(removed, s.index.descendantIDs(id)...)
	default:
		return nil, &ValidationError{Field: "policy", Reason: fmt.Sprintf("unknown delete policy %v", policy)}
	}

	for _, rid := range removed {
		delete(s.notes, rid)
	}
	s.generation++
	s.index = newIndex(s.notes)
	for _, rid := range removed {
		s.emit(EventDelete, rid)
	}
	s.logger.Debug("note deleted", "id", id, "policy", policy.String(), "removed", len(removed))
	return removed, nil
}

// Get returns a copy of a note.
func (s *Service) Get(id string) (Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.index.Get(id)
	if !ok {
		return Note{}, &NotFoundError{ID: id}
	}
	return n, nil
}

// Len returns the number of notes.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Len()
}

// Roots returns the root notes in sibling order.
func (s *Service) Roots() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Roots()
}

// Children returns the ordered children of id.
func (s *Service) Children(id string) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.index.Has(id) {
		return nil, &NotFoundError{ID: id}
	}
	return s.index.Children(id), nil
}

// Path returns the ancestors of id from the root down, followed by the note itself.
func (s *Service) Path(id string) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.index.Get(id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	path := s.index.Ancestors(id)
	slices.Reverse(path)
	return append(path, n), nil
}

// Tags returns every tag in use with its member count.
func (s *Service) Tags() []TagCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Tags()
}

// List returns all notes in tree order.
func (s *Service) List() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Walk()
}

// Snapshot copies the collection for persistence together with the change
// generation it reflects.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Notes: s.index.Walk(), Generation: s.generation}
}

// MarkSaved records that the state up to generation has been persisted.
func (s *Service) MarkSaved(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation > s.saved {
		s.saved = generation
	}
}

// Dirty reports whether there are changes not yet persisted.
func (s *Service) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation != s.saved
}

// Generation returns the current change generation.
func (s *Service) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Reload replaces the collection with one read back from the store.
// The reloaded state is considered clean.
func (s *Service) Reload(notes []Note) []Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(notes)
}

// ReloadIf is Reload guarded against local edits: it replaces the collection
// only if it is still clean and at generation, the value observed before the
// store was read. Otherwise nothing changes and ok is false.
func (s *Service) ReloadIf(generation uint64, notes []Note) (issues []Issue, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation || s.generation != s.saved {
		s.logger.Warn("reload refused: collection changed while the store was read",
			"expected_generation", generation, "generation", s.generation, "saved_generation", s.saved)
		return nil, false
	}
	return s.reload(notes), true
}

func (s *Service) reload(notes []Note) []Issue {
	s.replace(notes)
	s.generation++
	s.saved = s.generation
	s.emit(EventExternal, "")
	return slices.Clone(s.issues)
}

func (s *Service) lookup(id string) (*Note, error) {
	n, ok := s.notes[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return n, nil
}

func (s *Service) uniqueID() (string, error) {
	for range 8 {
		id := s.newID()
		if _, taken := s.notes[id]; id != "" && !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique note id")
}

// stamp returns a timestamp strictly after both prev and every timestamp
// handed out before, even when the clock does not advance.
func (s *Service) stamp(prev time.Time) time.Time {
	t := normalizeTime(s.clock())
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	if !t.After(prev) {
		t = prev.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// changed must be called with the write lock held after a successful mutation.
func (s *Service) changed(kind EventType, id string) {
	s.generation++
	s.index = newIndex(s.notes)
	s.emit(kind, id)
	s.logger.Debug("note changed", "type", string(kind), "id", id, "generation", s.generation)
}

func (s *Service) emit(kind EventType, id string) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- Event{Type: kind, ID: id, Timestamp: s.last.Unix()}:
	default:
		s.logger.Debug("event dropped", "type", string(kind), "id", id)
	}
}
