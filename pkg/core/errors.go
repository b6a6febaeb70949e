package core

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("note not found")
	ErrCycle          = errors.New("move would create a cycle")
	ErrParentNotFound = errors.New("parent note not found")
	ErrCorruptStore   = errors.New("note store is corrupt")
	ErrSaveFailure    = errors.New("failed to save notes")
)

// Field names reported by ValidationError.
const (
	FieldTitle = "title"
	FieldTags  = "tags"
)

// Kind classifies an error returned by the core.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindCycle          Kind = "cycle"
	KindParentNotFound Kind = "parent_not_found"
	KindCorruptStore   Kind = "corrupt_store"
	KindSaveFailure    Kind = "save_failure"
	KindInternal       Kind = "internal"
)

// ValidationError reports a rejected title or tag set.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a reference to a note that does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("note %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// CycleError reports a move that would make a note its own ancestor.
type CycleError struct {
	ID       string
	ParentID string
}

func (e *CycleError) Error() string {
	if e.ID == e.ParentID {
		return fmt.Sprintf("note %q cannot be its own parent", e.ID)
	}
	return fmt.Sprintf("cannot move note %q under its descendant %q", e.ID, e.ParentID)
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// ParentNotFoundError reports a create under an unknown parent.
type ParentNotFoundError struct {
	ParentID string
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("parent note %q not found", e.ParentID)
}

func (e *ParentNotFoundError) Is(target error) bool { return target == ErrParentNotFound }

// CorruptStoreError reports a persisted file that could not be decoded.
// Err carries the raw parse error.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("corrupt note store %s: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error { return e.Err }

func (e *CorruptStoreError) Is(target error) bool { return target == ErrCorruptStore }

// SaveFailureError reports a save that kept failing across consecutive attempts.
type SaveFailureError struct {
	Attempts int
	Err      error
}

func (e *SaveFailureError) Error() string {
	return fmt.Sprintf("save failed after %d consecutive attempts: %v", e.Attempts, e.Err)
}

func (e *SaveFailureError) Unwrap() error { return e.Err }

func (e *SaveFailureError) Is(target error) bool { return target == ErrSaveFailure }

// KindOf returns the classification of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrParentNotFound):
		return KindParentNotFound
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrCycle):
		return KindCycle
	case errors.Is(err, ErrSaveFailure):
		return KindSaveFailure
	case errors.Is(err, ErrCorruptStore):
		return KindCorruptStore
	default:
		return KindInternal
	}
}

// Recoverable reports whether err leaves state untouched and can be shown to
// the user as-is.
func Recoverable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindNotFound, KindCycle, KindParentNotFound:
		return true
	default:
		return false
	}
}
