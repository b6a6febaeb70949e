package core_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/arbor/pkg/core"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err         error
		kind        core.Kind
		sentinel    error
		recoverable bool
	}{
		{&core.ValidationError{Field: core.FieldTitle, Reason: "empty"}, core.KindValidation, core.ErrValidation, true},
		{&core.NotFoundError{ID: "x"}, core.KindNotFound, core.ErrNotFound, true},
		{&core.CycleError{ID: "a", ParentID: "b"}, core.KindCycle, core.ErrCycle, true},
		{&core.ParentNotFoundError{ParentID: "p"}, core.KindParentNotFound, core.ErrParentNotFound, true},
		{&core.CorruptStoreError{Path: "notes.json", Err: io.ErrUnexpectedEOF}, core.KindCorruptStore, core.ErrCorruptStore, false},
		{&core.SaveFailureError{Attempts: 3, Err: io.ErrShortWrite}, core.KindSaveFailure, core.ErrSaveFailure, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			wrapped := fmt.Errorf("command: %w", tt.err)
			assert.Equal(t, tt.kind, core.KindOf(tt.err))
			assert.Equal(t, tt.kind, core.KindOf(wrapped))
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.recoverable, core.Recoverable(wrapped))
		})
	}

	assert.Equal(t, core.KindInternal, core.KindOf(nil))
	assert.Equal(t, core.KindInternal, core.KindOf(errors.New("boom")))
	assert.False(t, core.Recoverable(errors.New("boom")))
}

func TestErrorUnwrap(t *testing.T) {
	corrupt := &core.CorruptStoreError{Path: "notes.json", Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, corrupt, io.ErrUnexpectedEOF)
	assert.Equal(t, "corrupt note store notes.json: unexpected EOF", corrupt.Error())

	failure := &core.SaveFailureError{Attempts: 3, Err: corrupt}
	assert.ErrorIs(t, failure, core.ErrCorruptStore)
	assert.Equal(t, core.KindSaveFailure, core.KindOf(failure))

	var target *core.CorruptStoreError
	assert.ErrorAs(t, failure, &target)
	assert.Equal(t, "notes.json", target.Path)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `note "a" cannot be its own parent`, (&core.CycleError{ID: "a", ParentID: "a"}).Error())
	assert.Equal(t, `cannot move note "a" under its descendant "b"`, (&core.CycleError{ID: "a", ParentID: "b"}).Error())
	assert.Equal(t, "invalid title: title cannot be empty", (&core.ValidationError{Field: core.FieldTitle, Reason: "title cannot be empty"}).Error())
	assert.Equal(t, `parent note "p" not found`, (&core.ParentNotFoundError{ParentID: "p"}).Error())
}
