package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Issue describes a repair applied to a loaded record.
type Issue struct {
	ID      string
	Problem string
}

func (i Issue) String() string {
	if i.ID == "" {
		return i.Problem
	}
	return fmt.Sprintf("note %s: %s", i.ID, i.Problem)
}

// Sanitize repairs record-level damage in a loaded collection so that the
// collection invariants hold. Records without an id get a fresh uuid;
// records repeating an id already seen are dropped. Every repair is reported.
func Sanitize(notes []Note) ([]Note, []Issue) {
	return SanitizeWithIDs(notes, uuid.NewString)
}

// SanitizeWithIDs is Sanitize with the generator used for records that have
// no id. A record is dropped only if newID keeps returning ids in use.
func SanitizeWithIDs(notes []Note, newID func() string) ([]Note, []Issue) {
	var issues []Issue
	report := func(id, format string, args ...any) {
		issues = append(issues, Issue{ID: id, Problem: fmt.Sprintf(format, args...)})
	}

	taken := make(map[string]bool, len(notes))
	for _, n := range notes {
		if id := strings.TrimSpace(n.ID); id != "" {
			taken[id] = true
		}
	}
	fresh := func() string {
		for range 8 {
			if id := newID(); id != "" && !taken[id] {
				taken[id] = true
				return id
			}
		}
		return ""
	}

	out := make([]Note, 0, len(notes))
	seen := make(map[string]bool, len(notes))
	for i, n := range notes {
		n = n.Clone()
		n.ID = strings.TrimSpace(n.ID)
		if n.ID == "" {
			if n.ID = fresh(); n.ID == "" {
				report("", "record %d has no id, dropped", i)
				continue
			}
			report(n.ID, "record %d had no id, assigned one", i)
		}
		if seen[n.ID] {
			report(n.ID, "duplicate id, dropped")
			continue
		}
		seen[n.ID] = true

		if t, err := ValidateTitle(n.Title); err == nil {
			n.Title = t
		} else if strings.TrimSpace(n.Title) == "" {
			report(n.ID, "blank title replaced")
			n.Title = PlaceholderTitle
		} else {
			report(n.ID, "title truncated")
			n.Title = string([]rune(strings.TrimSpace(n.Title))[:MaxTitleLength])
		}

		n.Tags = sanitizeTags(n.ID, n.Tags, report)

		n.CreatedAt = normalizeTime(n.CreatedAt)
		n.UpdatedAt = normalizeTime(n.UpdatedAt)
		if n.CreatedAt.IsZero() && !n.UpdatedAt.IsZero() {
			n.CreatedAt = n.UpdatedAt
		}
		if n.UpdatedAt.Before(n.CreatedAt) {
			report(n.ID, "updated_at before created_at")
			n.UpdatedAt = n.CreatedAt
		}
		out = append(out, n)
	}

	for i := range out {
		p := out[i].ParentID
		switch {
		case p == "":
		case p == out[i].ID:
			report(out[i].ID, "note was its own parent, moved to root")
			out[i].ParentID = ""
		case !seen[p]:
			report(out[i].ID, "parent %s missing, moved to root", p)
			out[i].ParentID = ""
		}
	}

	breakCycles(out, report)
	return out, issues
}

func sanitizeTags(id string, tags []string, report func(string, string, ...any)) []string {
	clean := make([]string, 0, len(tags))
	for _, tag := range tags {
		t, err := NormalizeTag(tag)
		if err != nil {
			report(id, "dropped tag %q: %v", tag, err)
			continue
		}
		clean = append(clean, t)
	}
	slices.Sort(clean)
	return slices.Compact(clean)
}

// breakCycles detaches one note of every parent cycle, visiting ids in
// sorted order so repairs are deterministic.
func breakCycles(notes []Note, report func(string, string, ...any)) {
	pos := make(map[string]int, len(notes))
	ids := make([]string, 0, len(notes))
	for i, n := range notes {
		pos[n.ID] = i
		ids = append(ids, n.ID)
	}
	slices.Sort(ids)

	done := make(map[string]bool, len(notes))
	for _, start := range ids {
		path := make(map[string]bool)
		cur := start
		for cur != "" && !done[cur] {
			if path[cur] {
				i := pos[cur]
				report(cur, "parent cycle through %s broken, moved to root", notes[i].ParentID)
				notes[i].ParentID = ""
				break
			}
			path[cur] = true
			cur = notes[pos[cur]].ParentID
		}
		for id := range path {
			done[id] = true
		}
	}
}
