package core_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/core"
)

func fixture(id, title, content string, updated int, tags ...string) core.Note {
	ts := baseTime.Add(time.Duration(updated) * time.Minute)
	if tags == nil {
		tags = []string{}
	}
	return core.Note{ID: id, Title: title, Content: content, Tags: tags, CreatedAt: baseTime, UpdatedAt: ts}
}

func searchFixture() *core.Service {
	return newTestService([]core.Note{
		fixture("kickoff", "Project kickoff", "agenda", 1, "urgent", "work"),
		fixture("groceries", "Groceries", "milk, eggs", 2, "home"),
		fixture("reading", "Reading list", "notes on the PROJ backlog", 3, "books"),
		fixture("taxes", "Taxes", "due in april", 4, "urgent"),
		fixture("ideas", "Ideas", "", 5, "misc"),
	})
}

func ids(notes []core.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func search(t *testing.T, svc *core.Service, q core.Query) []string {
	t.Helper()
	seq, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	return ids(slices.Collect(seq))
}

func TestSearch_TextAndTag(t *testing.T) {
	svc := searchFixture()
	assert.Equal(t, []string{"kickoff"}, search(t, svc, core.Query{Text: "proj", Tags: []string{"urgent"}}))
}

func TestSearch_Filters(t *testing.T) {
	svc := searchFixture()

	tests := []struct {
		name  string
		query core.Query
		want  []string
	}{
		{name: "empty query matches everything", query: core.Query{},
			want: []string{"ideas", "taxes", "reading", "groceries", "kickoff"}},
		{name: "text in title or content", query: core.Query{Text: "Proj"},
			want: []string{"reading", "kickoff"}},
		{name: "trailing space is part of the text", query: core.Query{Text: "proj "},
			want: []string{"reading"}},
		{name: "whitespace is matched literally", query: core.Query{Text: " "},
			want: []string{"taxes", "reading", "groceries", "kickoff"}},
		{name: "any tag", query: core.Query{Tags: []string{"home", "URGENT"}},
			want: []string{"taxes", "groceries", "kickoff"}},
		{name: "all tags", query: core.Query{Tags: []string{"urgent", "work"}, TagMode: core.MatchAll},
			want: []string{"kickoff"}},
		{name: "all tags none match", query: core.Query{Tags: []string{"urgent", "home"}, TagMode: core.MatchAll},
			want: []string{}},
		{name: "no text match", query: core.Query{Text: "zebra"},
			want: []string{}},
		{name: "limit", query: core.Query{Limit: 2},
			want: []string{"ideas", "taxes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, search(t, svc, tt.query))
		})
	}
}

func TestSearch_OrderTiesBrokenByID(t *testing.T) {
	svc := newTestService([]core.Note{
		fixture("b", "Same", "", 1),
		fixture("a", "Same", "", 1),
		fixture("c", "Same", "", 2),
	})
	assert.Equal(t, []string{"c", "a", "b"}, search(t, svc, core.Query{Text: "same"}))
}

func TestSearch_TagGlobs(t *testing.T) {
	svc := newTestService([]core.Note{
		fixture("alpha", "Alpha", "", 1, "proj/alpha"),
		fixture("beta", "Beta", "", 2, "proj/beta", "urgent"),
		fixture("deep", "Deep", "", 3, "proj/x/y"),
		fixture("other", "Other", "", 4, "personal"),
	})

	assert.Equal(t, []string{"beta", "alpha"}, search(t, svc, core.Query{Tags: []string{"proj/*"}}))
	assert.Equal(t, []string{"deep", "beta", "alpha"}, search(t, svc, core.Query{Tags: []string{"proj/**"}}))
	assert.Equal(t, []string{"beta"}, search(t, svc, core.Query{Tags: []string{"proj/*", "urgent"}, TagMode: core.MatchAll}))
	assert.Equal(t, []string{"other"}, search(t, svc, core.Query{Tags: []string{"pers?nal"}}))

	_, err := svc.Search(context.Background(), core.Query{Tags: []string{"proj/[a"}})
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, core.FieldTags, ve.Field)
}

func TestSearch_Subtree(t *testing.T) {
	svc := newTestService(nil)
	work := mustCreate(t, svc, "", "Work plan")
	proj := mustCreate(t, svc, work.ID, "Plan A")
	mustCreate(t, svc, proj.ID, "Plan details")
	mustCreate(t, svc, "", "Holiday plan")

	got := search(t, svc, core.Query{Text: "plan", SubtreeOf: work.ID})
	assert.Len(t, got, 3)
	assert.NotContains(t, got, "n4")

	got = search(t, svc, core.Query{Text: "plan", SubtreeOf: proj.ID})
	assert.ElementsMatch(t, []string{proj.ID, "n3"}, got)

	_, err := svc.Search(context.Background(), core.Query{SubtreeOf: "ghost"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSearch_InvalidTag(t *testing.T) {
	svc := searchFixture()
	_, err := svc.Search(context.Background(), core.Query{Tags: []string{"  "}})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestSearch_Restartable(t *testing.T) {
	ctx := context.Background()
	svc := searchFixture()
	seq, err := svc.Search(ctx, core.Query{Text: "proj"})
	require.NoError(t, err)

	assert.Equal(t, []string{"reading", "kickoff"}, ids(slices.Collect(seq)))

	_, err = svc.Rename(ctx, "taxes", "Proj taxes")
	require.NoError(t, err)
	assert.Equal(t, []string{"taxes", "reading", "kickoff"}, ids(slices.Collect(seq)),
		"a second range reflects the collection as it is now")

	var first []string
	for n := range seq {
		first = append(first, n.ID)
		break
	}
	assert.Equal(t, []string{"taxes"}, first)
}

func TestSearch_ConsumerMayCallService(t *testing.T) {
	ctx := context.Background()
	svc := searchFixture()
	seq, err := svc.Search(ctx, core.Query{Tags: []string{"urgent"}})
	require.NoError(t, err)

	for n := range seq {
		_, err := svc.AddTag(ctx, n.ID, "seen")
		require.NoError(t, err)
	}
	assert.Equal(t, []core.TagCount{
		{Tag: "books", Count: 1},
		{Tag: "home", Count: 1},
		{Tag: "misc", Count: 1},
		{Tag: "seen", Count: 2},
		{Tag: "urgent", Count: 2},
		{Tag: "work", Count: 1},
	}, svc.Tags())
}

func TestSearch_StopsOnCanceledContext(t *testing.T) {
	svc := searchFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seq, err := svc.Search(ctx, core.Query{})
	require.NoError(t, err)

	var got []string
	for n := range seq {
		got = append(got, n.ID)
		cancel()
	}
	assert.Len(t, got, 1)
}
