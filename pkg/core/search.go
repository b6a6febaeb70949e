package core

import (
	"cmp"
	"context"
	"iter"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// TagMode selects how requested tags are matched.
type TagMode int

const (
	// MatchAny keeps notes sharing at least one requested tag.
	MatchAny TagMode = iota
	// MatchAll keeps notes carrying every requested tag.
	MatchAll
)

// Query describes a read-only search over the collection.
type Query struct {
	// Text is matched case-insensitively as a substring of title or content.
	Text string
	// Tags filters by tag. Entries containing glob metacharacters
	// (e.g. "proj/*") are matched as patterns.
	Tags    []string
	TagMode TagMode
	// SubtreeOf restricts results to a note and its descendants.
	SubtreeOf string
	// Limit caps the number of results; zero means no limit.
	Limit int
}

type compiledQuery struct {
	text     string
	tags     []string
	patterns []string
	mode     TagMode
}

func compileQuery(q Query) (compiledQuery, error) {
	c := compiledQuery{
		text: strings.ToLower(q.Text),
		mode: q.TagMode,
	}
	for _, raw := range q.Tags {
		t, err := NormalizeTag(raw)
		if err != nil {
			return compiledQuery{}, err
		}
		if strings.ContainsAny(t, "*?[{") {
			if !doublestar.ValidatePattern(t) {
				return compiledQuery{}, &ValidationError{Field: FieldTags, Reason: "invalid tag pattern " + t}
			}
			c.patterns = append(c.patterns, t)
			continue
		}
		c.tags = append(c.tags, t)
	}
	return c, nil
}

func (c compiledQuery) matches(n *Note) bool {
	if c.text != "" &&
		!strings.Contains(strings.ToLower(n.Title), c.text) &&
		!strings.Contains(strings.ToLower(n.Content), c.text) {
		return false
	}
	if len(c.tags) == 0 && len(c.patterns) == 0 {
		return true
	}
	hits := 0
	for _, t := range c.tags {
		if n.HasTag(t) {
			hits++
		}
	}
	for _, p := range c.patterns {
		if slices.ContainsFunc(n.Tags, func(tag string) bool {
			ok, _ := doublestar.Match(p, tag)
			return ok
		}) {
			hits++
		}
	}
	if c.mode == MatchAll {
		return hits == len(c.tags)+len(c.patterns)
	}
	return hits > 0
}

// Search validates q and returns the matching notes, most recently updated
// first. The sequence is evaluated on each range against the collection
// as it is at that moment, so it can be restarted.
func (s *Service) Search(ctx context.Context, q Query) (iter.Seq[Note], error) {
	cq, err := compileQuery(q)
	if err != nil {
		return nil, err
	}
	if q.SubtreeOf != "" {
		s.mu.RLock()
		ok := s.index.Has(q.SubtreeOf)
		s.mu.RUnlock()
		if !ok {
			return nil, &NotFoundError{ID: q.SubtreeOf}
		}
	}

	return func(yield func(Note) bool) {
		for _, n := range s.match(cq, q) {
			if ctx.Err() != nil || !yield(n) {
				return
			}
		}
	}, nil
}

// match collects results under the read lock so that consumers may call
// back into the service while ranging.
func (s *Service) match(cq compiledQuery, q Query) []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []string
	if q.SubtreeOf != "" {
		if !s.index.Has(q.SubtreeOf) {
			return nil
		}
		candidates = append([]string{q.SubtreeOf}, s.index.descendantIDs(q.SubtreeOf)...)
	} else {
		candidates = make([]string, 0, len(s.notes))
		for id := range s.notes {
			candidates = append(candidates, id)
		}
	}

	var out []Note
	for _, id := range candidates {
		if n := s.notes[id]; cq.matches(n) {
			out = append(out, n.Clone())
		}
	}
	slices.SortFunc(out, func(a, b Note) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}
