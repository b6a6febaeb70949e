package core

import (
	"context"
	"fmt"
	"slices"
)

// Command is a closed set of typed requests a UI can hand to Execute.
type Command interface {
	command()
}

// CreateCommand creates a note.
type CreateCommand struct {
	ParentID string
	Title    string
	Content  string
	Tags     []string
}

// RenameCommand changes a note's title.
type RenameCommand struct {
	ID    string
	Title string
}

// EditCommand replaces a note's content and tags.
type EditCommand struct {
	ID      string
	Content string
	Tags    []string
}

// MoveCommand reparents a note. An empty ParentID moves it to the root.
type MoveCommand struct {
	ID       string
	ParentID string
}

// DeleteCommand removes a note. The zero Policy is DefaultDeletePolicy.
type DeleteCommand struct {
	ID     string
	Policy DeletePolicy
}

// AddTagCommand adds a tag to a note.
type AddTagCommand struct {
	ID  string
	Tag string
}

// RemoveTagCommand removes a tag from a note.
type RemoveTagCommand struct {
	ID  string
	Tag string
}

// SearchCommand runs a query.
type SearchCommand struct {
	Query Query
}

func (CreateCommand) command()    {}
func (RenameCommand) command()    {}
func (EditCommand) command()      {}
func (MoveCommand) command()      {}
func (DeleteCommand) command()    {}
func (AddTagCommand) command()    {}
func (RemoveTagCommand) command() {}
func (SearchCommand) command()    {}

// Result is the outcome of a successful command.
// Note is set by commands acting on a single note, Notes by searches and
// Removed by deletes.
type Result struct {
	Note    *Note
	Notes   []Note
	Removed []string
}

// Execute dispatches cmd to the matching service operation.
func (s *Service) Execute(ctx context.Context, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case CreateCommand:
		return single(s.Create(ctx, CreateInput{ParentID: c.ParentID, Title: c.Title, Content: c.Content, Tags: c.Tags}))
	case RenameCommand:
		return single(s.Rename(ctx, c.ID, c.Title))
	case EditCommand:
		return single(s.Edit(ctx, c.ID, c.Content, c.Tags))
	case MoveCommand:
		return single(s.Move(ctx, c.ID, c.ParentID))
	case AddTagCommand:
		return single(s.AddTag(ctx, c.ID, c.Tag))
	case RemoveTagCommand:
		return single(s.RemoveTag(ctx, c.ID, c.Tag))
	case DeleteCommand:
		removed, err := s.Delete(ctx, c.ID, c.Policy)
		if err != nil {
			return Result{}, err
		}
		return Result{Removed: removed}, nil
	case SearchCommand:
		seq, err := s.Search(ctx, c.Query)
		if err != nil {
			return Result{}, err
		}
		return Result{Notes: slices.Collect(seq)}, nil
	default:
		return Result{}, fmt.Errorf("unsupported command %T", cmd)
	}
}

func single(n Note, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return Result{Note: &n}, nil
}
