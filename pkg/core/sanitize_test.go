package core_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/core"
)

func problems(issues []core.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.String())
	}
	return out
}

func TestSanitize_CleanCollection(t *testing.T) {
	in := []core.Note{
		{ID: "a", Title: "A", Tags: []string{"x"}, CreatedAt: baseTime, UpdatedAt: baseTime},
		{ID: "b", Title: "B", ParentID: "a", Tags: []string{}, CreatedAt: baseTime, UpdatedAt: baseTime},
	}
	out, issues := core.Sanitize(in)
	assert.Empty(t, issues)
	assert.Equal(t, in, out)
}

func TestSanitize_Records(t *testing.T) {
	later := baseTime.Add(time.Hour)

	tests := []struct {
		name  string
		in    []core.Note
		check func(t *testing.T, out []core.Note)
		want  []string
	}{
		{
			name: "missing id gets a fresh one",
			in:   []core.Note{{ID: "keep", Title: "K"}, {ID: "  ", Title: "Found"}},
			check: func(t *testing.T, out []core.Note) {
				assert.Equal(t, []string{"keep", "n1"}, ids(out))
				assert.Equal(t, "Found", out[1].Title)
			},
			want: []string{"note n1: record 1 had no id, assigned one"},
		},
		{
			name: "duplicate id keeps first",
			in:   []core.Note{{ID: "a", Title: "First"}, {ID: "a", Title: "Second"}},
			check: func(t *testing.T, out []core.Note) {
				require.Len(t, out, 1)
				assert.Equal(t, "First", out[0].Title)
			},
			want: []string{"note a: duplicate id, dropped"},
		},
		{
			name: "blank title",
			in:   []core.Note{{ID: "a", Title: " "}},
			check: func(t *testing.T, out []core.Note) {
				assert.Equal(t, core.PlaceholderTitle, out[0].Title)
			},
			want: []string{"note a: blank title replaced"},
		},
		{
			name: "long title",
			in:   []core.Note{{ID: "a", Title: strings.Repeat("ß", core.MaxTitleLength+20)}},
			check: func(t *testing.T, out []core.Note) {
				assert.Equal(t, strings.Repeat("ß", core.MaxTitleLength), out[0].Title)
			},
			want: []string{"note a: title truncated"},
		},
		{
			name: "tags normalized and bad tags dropped",
			in:   []core.Note{{ID: "a", Title: "A", Tags: []string{"B", " b", "", "a"}}},
			check: func(t *testing.T, out []core.Note) {
				assert.Equal(t, []string{"a", "b"}, out[0].Tags)
			},
			want: []string{`note a: dropped tag "": invalid tags: tag cannot be empty`},
		},
		{
			name: "nil tags become empty",
			in:   []core.Note{{ID: "a", Title: "A"}},
			check: func(t *testing.T, out []core.Note) {
				assert.NotNil(t, out[0].Tags)
			},
		},
		{
			name: "updated before created",
			in:   []core.Note{{ID: "a", Title: "A", CreatedAt: later, UpdatedAt: baseTime}},
			check: func(t *testing.T, out []core.Note) {
				assert.Equal(t, later, out[0].UpdatedAt)
			},
			want: []string{"note a: updated_at before created_at"},
		},
		{
			name: "missing created_at",
			in:   []core.Note{{ID: "a", Title: "A", UpdatedAt: later}},
			check: func(t *testing.T, out []core.Note) {
				assert.Equal(t, later, out[0].CreatedAt)
			},
		},
		{
			name: "own parent",
			in:   []core.Note{{ID: "a", Title: "A", ParentID: "a"}},
			check: func(t *testing.T, out []core.Note) {
				assert.True(t, out[0].IsRoot())
			},
			want: []string{"note a: note was its own parent, moved to root"},
		},
		{
			name: "missing parent",
			in:   []core.Note{{ID: "a", Title: "A", ParentID: "gone"}},
			check: func(t *testing.T, out []core.Note) {
				assert.True(t, out[0].IsRoot())
			},
			want: []string{"note a: parent gone missing, moved to root"},
		},
		{
			name: "parent dropped as duplicate still resolves",
			in: []core.Note{
				{ID: "p", Title: "P"},
				{ID: "c", Title: "C", ParentID: "p"},
				{ID: "p", Title: "P again"},
			},
			check: func(t *testing.T, out []core.Note) {
				assert.Equal(t, "p", out[1].ParentID)
			},
			want: []string{"note p: duplicate id, dropped"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, issues := core.SanitizeWithIDs(tt.in, sequentialIDs())
			tt.check(t, out)
			if tt.want == nil {
				assert.Empty(t, issues)
				return
			}
			assert.Equal(t, tt.want, problems(issues))
		})
	}
}

func TestSanitize_BreaksCycles(t *testing.T) {
	out, issues := core.Sanitize([]core.Note{
		{ID: "b", Title: "B", ParentID: "a"},
		{ID: "a", Title: "A", ParentID: "c"},
		{ID: "c", Title: "C", ParentID: "b"},
		{ID: "d", Title: "D", ParentID: "c"},
	})
	assert.Equal(t, []string{"note a: parent cycle through c broken, moved to root"}, problems(issues))

	idx := core.BuildIndex(out)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(idx.Walk()))
	assert.Equal(t, []string{"c", "b", "a"}, ids(idx.Ancestors("d")))
}

func TestSanitizeWithIDs_AssignsUnusedIDs(t *testing.T) {
	gen := sequentialIDs()
	in := []core.Note{
		{ID: "", Title: "First anonymous"},
		{ID: "n1", Title: "Already n1"},
		{ID: "", Title: "Second anonymous", ParentID: "n1"},
	}
	out, issues := core.SanitizeWithIDs(in, gen)
	assert.Equal(t, []string{"n2", "n1", "n3"}, ids(out))
	assert.Equal(t, "n1", out[2].ParentID)
	assert.Equal(t, []string{
		"note n2: record 0 had no id, assigned one",
		"note n3: record 2 had no id, assigned one",
	}, problems(issues))

	out, _ = core.Sanitize(in[:1])
	_, err := uuid.Parse(out[0].ID)
	assert.NoError(t, err, "Sanitize assigns uuids")

	stuck := func() string { return "n1" }
	out, issues = core.SanitizeWithIDs(in, stuck)
	assert.Equal(t, []string{"n1"}, ids(out))
	assert.Equal(t, []string{
		"record 0 has no id, dropped",
		"record 2 has no id, dropped",
	}, problems(issues))
}

func TestSanitize_DoesNotMutateInput(t *testing.T) {
	in := []core.Note{{ID: "a", Title: "A", Tags: []string{"Z"}, ParentID: "ghost"}}
	_, _ = core.Sanitize(in)
	assert.Equal(t, []string{"Z"}, in[0].Tags)
	assert.Equal(t, "ghost", in[0].ParentID)
}

func TestIssue_String(t *testing.T) {
	assert.Equal(t, "record 3 has no id, dropped", core.Issue{Problem: "record 3 has no id, dropped"}.String())
	assert.Equal(t, "note x: title truncated", core.Issue{ID: "x", Problem: "title truncated"}.String())
}
