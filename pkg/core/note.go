package core

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// PlaceholderTitle is used when a note is created with a blank title.
	PlaceholderTitle = "Untitled Note"

	// MaxTitleLength is the maximum title length in runes.
	MaxTitleLength = 100

	// MaxTagLength is the maximum length of a single tag in runes.
	MaxTagLength = 30
)

// Note is the central entity of the domain.
// It represents a user-authored piece of content with an optional parent
// and a set of normalized tags. Content is opaque to the core.
type Note struct {
	ID        string
	Title     string
	Content   string
	Tags      []string
	ParentID  string // empty means the note is a root
	Order     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewNote builds a validated note. A blank title falls back to PlaceholderTitle;
// every other out-of-contract input fails with a *ValidationError.
func NewNote(id, title, content string, tags []string, now time.Time) (Note, error) {
	if strings.TrimSpace(title) == "" {
		title = PlaceholderTitle
	}
	t, err := ValidateTitle(title)
	if err != nil {
		return Note{}, err
	}
	normalized, err := NormalizeTags(tags)
	if err != nil {
		return Note{}, err
	}
	now = normalizeTime(now)
	return Note{
		ID:        id,
		Title:     t,
		Content:   content,
		Tags:      normalized,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateTitle trims the title and checks it against the title rules.
func ValidateTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", &ValidationError{Field: FieldTitle, Reason: "title cannot be empty"}
	}
	if utf8.RuneCountInString(t) > MaxTitleLength {
		return "", &ValidationError{
			Field:  FieldTitle,
			Reason: fmt.Sprintf("title exceeds %d characters", MaxTitleLength),
		}
	}
	return t, nil
}

// NormalizeTag trims and lower-cases a single tag.
func NormalizeTag(tag string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(tag))
	if t == "" {
		return "", &ValidationError{Field: FieldTags, Reason: "tag cannot be empty"}
	}
	if utf8.RuneCountInString(t) > MaxTagLength {
		return "", &ValidationError{
			Field:  FieldTags,
			Reason: fmt.Sprintf("tag %q exceeds %d characters", t, MaxTagLength),
		}
	}
	return t, nil
}

// NormalizeTags returns a sorted, deduplicated copy of tags.
// The result is never nil so that empty tag sets serialize as [].
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t, err := NormalizeTag(tag)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// IsRoot reports whether the note has no parent.
func (n Note) IsRoot() bool {
	return n.ParentID == ""
}

// HasTag reports whether the note carries the given (normalized) tag.
func (n Note) HasTag(tag string) bool {
	_, found := slices.BinarySearch(n.Tags, tag)
	return found
}

// Equal reports whether two notes denote the same entity.
func (n Note) Equal(other Note) bool {
	return n.ID == other.ID
}

// Clone returns a copy that shares no mutable state with n.
func (n Note) Clone() Note {
	c := n
	c.Tags = slices.Clone(n.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

// normalizeTime strips the monotonic clock reading and converts to UTC so
// timestamps compare the same before and after serialization.
func normalizeTime(t time.Time) time.Time {
	return t.Round(0).UTC()
}
