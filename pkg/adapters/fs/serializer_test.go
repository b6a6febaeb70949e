package fs_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/aretw0/arbor/pkg/adapters/fs"
	"github.com/aretw0/arbor/pkg/core"
)

func sampleNotes() []core.Note {
	created := time.Date(2024, 3, 1, 9, 30, 0, 123456000, time.UTC)
	return []core.Note{
		{
			ID:        "root",
			Title:     "Projects",
			Content:   "line one\nline two",
			Tags:      []string{"proj", "work"},
			Order:     0,
			CreatedAt: created,
			UpdatedAt: created.Add(time.Minute),
		},
		{
			ID:        "child",
			Title:     "Arbor: \"quoted\"",
			Content:   "",
			Tags:      []string{},
			ParentID:  "root",
			Order:     1,
			CreatedAt: created.Add(time.Second),
			UpdatedAt: created.Add(time.Second),
		},
	}
}

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

func assertSameNotes(t testingT, want, got []core.Note) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Title, g.Title)
		assert.Equal(t, w.Content, g.Content)
		assert.Equal(t, w.ParentID, g.ParentID)
		assert.Equal(t, w.Order, g.Order)
		assert.Equal(t, len(w.Tags), len(g.Tags), "tags of %s", w.ID)
		for j := range w.Tags {
			assert.Equal(t, w.Tags[j], g.Tags[j])
		}
		assert.True(t, w.CreatedAt.Equal(g.CreatedAt), "created_at of %s: %v != %v", w.ID, w.CreatedAt, g.CreatedAt)
		assert.True(t, w.UpdatedAt.Equal(g.UpdatedAt), "updated_at of %s: %v != %v", w.ID, w.UpdatedAt, g.UpdatedAt)
	}
}

func TestSerializers_RoundTrip(t *testing.T) {
	for ext, s := range fs.DefaultSerializers() {
		t.Run(ext, func(t *testing.T) {
			data, err := s.Serialize(sampleNotes())
			require.NoError(t, err)

			got, skipped, err := s.Parse(data)
			require.NoError(t, err)
			assert.Empty(t, skipped)
			assertSameNotes(t, sampleNotes(), got)
		})
	}
}

func TestSerializers_Empty(t *testing.T) {
	for ext, s := range fs.DefaultSerializers() {
		t.Run(ext, func(t *testing.T) {
			got, _, err := s.Parse([]byte("   \n"))
			require.NoError(t, err)
			assert.Empty(t, got)

			data, err := s.Serialize(nil)
			require.NoError(t, err)
			got, _, err = s.Parse(data)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestJSONSerializer_Parse(t *testing.T) {
	s := fs.NewJSONSerializer()

	t.Run("Bare List", func(t *testing.T) {
		data := `[{"id":"a","title":"A","content":"","tags":["x"],"parent_id":null,"created_at":"2024-01-01T10:00:00","updated_at":"2024-01-01T10:00:00.5"}]`
		got, _, err := s.Parse([]byte(data))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "", got[0].ParentID)
		assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), got[0].CreatedAt)
		assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 500000000, time.UTC), got[0].UpdatedAt)
	})

	t.Run("Document Header", func(t *testing.T) {
		data := `{"version":1,"notes":[{"id":"b","title":"B","parent_id":"a"}]}`
		got, _, err := s.Parse([]byte(data))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].ParentID)
		assert.True(t, got[0].CreatedAt.IsZero())
	})

	malformed := map[string]string{
		"Truncated":      `[{"id":"a","title":`,
		"Trailing Data":  `[] []`,
		"Wrong Shape":    `"notes"`,
		"Future Version": `{"version":99,"notes":[]}`,
		"Notes Not List": `{"version":1,"notes":5}`,
	}
	for name, data := range malformed {
		t.Run(name, func(t *testing.T) {
			_, _, err := s.Parse([]byte(data))
			assert.Error(t, err)
		})
	}

	t.Run("Bad Records Skipped", func(t *testing.T) {
		data := `{"version":1,"notes":[
		  {"id":"good","title":"Good","created_at":"2024-01-01T10:00:00Z","updated_at":"2024-01-01T10:00:00Z"},
		  {"id":"typed","title":5},
		  {"id":"dated","title":"Dated","created_at":"yesterday"},
		  {"id":"later","title":"Later","updated_at":"tomorrow-ish"},
		  {"id":7},
		  "not a record",
		  {"id":"also-good","title":"Also good"}
		]}`
		got, skipped, err := s.Parse([]byte(data))
		require.NoError(t, err)
		assert.Equal(t, []string{"good", "also-good"}, noteIDs(got))

		require.Len(t, skipped, 5)
		assert.Equal(t, []string{"typed", "dated", "later", "", ""}, issueIDs(skipped))
		assert.Contains(t, skipped[0].Problem, "record 1 skipped")
		assert.Contains(t, skipped[1].Problem, "created_at")
		assert.Contains(t, skipped[2].Problem, "updated_at")
	})
}

func noteIDs(notes []core.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func issueIDs(issues []core.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.ID)
	}
	return out
}

func TestYAMLSerializer_Parse(t *testing.T) {
	s := fs.NewYAMLSerializer()

	t.Run("Bare List", func(t *testing.T) {
		data := "- id: a\n  title: A\n  tags: [x, y]\n  created_at: \"2024-01-01T10:00:00Z\"\n"
		got, _, err := s.Parse([]byte(data))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, []string{"x", "y"}, got[0].Tags)
	})

	t.Run("Bad Records Skipped", func(t *testing.T) {
		data := `version: 1
notes:
  - id: good
    title: Good
  - id: listy
    title: [not, a, title]
  - id: dated
    title: Dated
    created_at: yesterday
  - just a string
  - id: tagged
    title: Tagged
    tags: [a]
`
		got, skipped, err := s.Parse([]byte(data))
		require.NoError(t, err)
		assert.Equal(t, []string{"good", "tagged"}, noteIDs(got))
		assert.Equal(t, []string{"listy", "dated", ""}, issueIDs(skipped))
	})

	t.Run("Scalar Document", func(t *testing.T) {
		_, _, err := s.Parse([]byte("just text"))
		assert.Error(t, err)
	})

	t.Run("Invalid Syntax", func(t *testing.T) {
		_, _, err := s.Parse([]byte("notes: [unclosed"))
		assert.Error(t, err)
	})
}

func TestSerializers_RoundTripProperty(t *testing.T) {
	word := rapid.StringMatching(`[a-zA-Z0-9][a-zA-Z0-9._-]{0,15}`)
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	for ext, s := range fs.DefaultSerializers() {
		t.Run(ext, func(t *testing.T) {
			rapid.Check(t, func(t *rapid.T) {
				count := rapid.IntRange(0, 8).Draw(t, "count")
				notes := make([]core.Note, 0, count)
				for i := 0; i < count; i++ {
					created := base.Add(time.Duration(rapid.Int64Range(0, 1<<50).Draw(t, "created")))
					n := core.Note{
						ID:        fmt.Sprintf("id-%d", i),
						Title:     word.Draw(t, "title"),
						Content:   word.Draw(t, "content"),
						Tags:      rapid.SliceOfDistinct(word, func(s string) string { return s }).Draw(t, "tags"),
						Order:     float64(rapid.IntRange(0, 1000).Draw(t, "order")),
						CreatedAt: created,
						UpdatedAt: created.Add(time.Duration(rapid.Int64Range(0, 1<<40).Draw(t, "age"))),
					}
					if i > 0 && rapid.Bool().Draw(t, "child") {
						n.ParentID = fmt.Sprintf("id-%d", rapid.IntRange(0, i-1).Draw(t, "parent"))
					}
					notes = append(notes, n)
				}

				data, err := s.Serialize(notes)
				if err != nil {
					t.Fatalf("serialize: %v", err)
				}
				got, skipped, err := s.Parse(data)
				if err != nil || len(skipped) > 0 {
					t.Fatalf("parse: %v %v\n%s", err, skipped, data)
				}
				assertSameNotes(t, notes, got)
			})
		})
	}
}
