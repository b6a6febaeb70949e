package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/core"
)

func TestResolveID(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz789"}
	next := 0
	svc := core.NewService(nil, core.WithIDGenerator(func() string {
		id := ids[next]
		next++
		return id
	}))
	for range ids {
		_, err := svc.Create(context.Background(), core.CreateInput{Title: "n"})
		require.NoError(t, err)
	}

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{ref: "abc123", want: "abc123"},
		{ref: "abd", want: "abd456"},
		{ref: "x", want: "xyz789"},
		{ref: "ab", wantErr: true},
		{ref: "nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := resolveID(svc, tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := resolveID(svc, "nope")
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}

func TestChangeReason(t *testing.T) {
	assert.Equal(t, "docs(notes): create Inbox\n\nSaved-by: arbor", changeReason("create Inbox"))
}

func TestFormatTags(t *testing.T) {
	assert.Equal(t, "", formatTags(nil))
	assert.Equal(t, " [a, b]", formatTags([]string{"a", "b"}))
}
