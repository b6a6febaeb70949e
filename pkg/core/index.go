package core

import (
	"cmp"
	"slices"
)

// TagCount is a tag together with the number of notes carrying it.
type TagCount struct {
	Tag   string
	Count int
}

// Index is the derived, in-memory view of a collection: id lookup,
// ordered parent→children adjacency and tag membership.
// It is rebuilt wholesale after structural changes and never persisted.
type Index struct {
	byID     map[string]*Note
	children map[string][]string // "" holds the roots
	tags     map[string][]string
}

// BuildIndex indexes a copy of notes in a single pass.
// Notes are assumed to satisfy the collection invariants (see Sanitize).
func BuildIndex(notes []Note) *Index {
	arena := make(map[string]*Note, len(notes))
	for _, n := range notes {
		c := n.Clone()
		arena[c.ID] = &c
	}
	return newIndex(arena)
}

func newIndex(arena map[string]*Note) *Index {
	idx := &Index{
		byID:     arena,
		children: make(map[string][]string),
		tags:     make(map[string][]string),
	}
	for id, n := range arena {
		idx.children[n.ParentID] = append(idx.children[n.ParentID], id)
		for _, tag := range n.Tags {
			idx.tags[tag] = append(idx.tags[tag], id)
		}
	}
	for parent, ids := range idx.children {
		slices.SortFunc(ids, func(a, b string) int {
			return compareSiblings(arena[a], arena[b])
		})
		idx.children[parent] = ids
	}
	for _, ids := range idx.tags {
		slices.Sort(ids)
	}
	return idx
}

// compareSiblings orders notes by Order, then CreatedAt, then ID.
func compareSiblings(a, b *Note) int {
	if c := cmp.Compare(a.Order, b.Order); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Len returns the number of indexed notes.
func (idx *Index) Len() int {
	return len(idx.byID)
}

// Has reports whether id is indexed.
func (idx *Index) Has(id string) bool {
	_, ok := idx.byID[id]
	return ok
}

// Get returns a copy of the note with the given id.
func (idx *Index) Get(id string) (Note, bool) {
	n, ok := idx.byID[id]
	if !ok {
		return Note{}, false
	}
	return n.Clone(), true
}

// Roots returns the root notes in sibling order.
func (idx *Index) Roots() []Note {
	return idx.collect(idx.children[""])
}

// Children returns the direct children of id in sibling order.
func (idx *Index) Children(id string) []Note {
	if id == "" {
		return nil
	}
	return idx.collect(idx.children[id])
}

// Tagged returns the notes carrying tag, ordered by id.
func (idx *Index) Tagged(tag string) []Note {
	return idx.collect(idx.tags[tag])
}

// Tags returns every tag in use with its member count, sorted by tag.
func (idx *Index) Tags() []TagCount {
	out := make([]TagCount, 0, len(idx.tags))
	for tag, ids := range idx.tags {
		out = append(out, TagCount{Tag: tag, Count: len(ids)})
	}
	slices.SortFunc(out, func(a, b TagCount) int { return cmp.Compare(a.Tag, b.Tag) })
	return out
}

// Ancestors returns the parent chain of id, nearest first.
func (idx *Index) Ancestors(id string) []Note {
	var out []Note
	seen := map[string]bool{id: true}
	n, ok := idx.byID[id]
	for ok && n.ParentID != "" && !seen[n.ParentID] {
		seen[n.ParentID] = true
		n, ok = idx.byID[n.ParentID]
		if ok {
			out = append(out, n.Clone())
		}
	}
	return out
}

// Descendants returns every note below id, depth-first in sibling order.
func (idx *Index) Descendants(id string) []Note {
	return idx.collect(idx.descendantIDs(id))
}

func (idx *Index) descendantIDs(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	var walk func(string)
	walk = func(parent string) {
		for _, child := range idx.children[parent] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
			walk(child)
		}
	}
	if id != "" {
		walk(id)
	}
	return out
}

// IsDescendant reports whether candidate sits somewhere below ancestor.
func (idx *Index) IsDescendant(ancestor, candidate string) bool {
	seen := make(map[string]bool)
	n, ok := idx.byID[candidate]
	for ok && n.ParentID != "" && !seen[n.ID] {
		if n.ParentID == ancestor {
			return true
		}
		seen[n.ID] = true
		n, ok = idx.byID[n.ParentID]
	}
	return false
}

// CheckMove validates reparenting id under parent by walking the ancestor
// chain from parent upward. An empty parent (move to root) is always legal.
func (idx *Index) CheckMove(id, parent string) error {
	if parent == "" {
		return nil
	}
	if parent == id || idx.IsDescendant(id, parent) {
		return &CycleError{ID: id, ParentID: parent}
	}
	return nil
}

// NextOrder returns an Order value that sorts after every current child of parent.
func (idx *Index) NextOrder(parent string) float64 {
	siblings := idx.children[parent]
	if len(siblings) == 0 {
		return 0
	}
	var highest float64
	for i, id := range siblings {
		if o := idx.byID[id].Order; i == 0 || o > highest {
			highest = o
		}
	}
	return highest + 1
}

// Walk returns all notes in tree order: each root followed by its subtree.
func (idx *Index) Walk() []Note {
	ids := make([]string, 0, len(idx.byID))
	for _, root := range idx.children[""] {
		ids = append(ids, root)
		ids = append(ids, idx.descendantIDs(root)...)
	}
	return idx.collect(ids)
}

func (idx *Index) collect(ids []string) []Note {
	out := make([]Note, 0, len(ids))
	for _, id := range ids {
		if n, ok := idx.byID[id]; ok {
			out = append(out, n.Clone())
		}
	}
	return out
}
