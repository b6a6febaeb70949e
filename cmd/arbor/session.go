package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/core"
)

// resolvePath picks the notes file: the --file flag, the nearest notes file
// upwards from the working directory, or ./notes.json.
func resolvePath() string {
	if notesFile != "" {
		return notesFile
	}
	wd, err := os.Getwd()
	if err != nil {
		fatal("Failed to get CWD", err)
	}
	if found, err := arbor.FindNotesFile(wd); err == nil {
		return found
	}
	return "notes.json"
}

func openNotebook() *arbor.Notebook {
	nb, err := arbor.Open(resolvePath(),
		arbor.WithAdapter(adapter),
		arbor.WithVersioning(versioning),
		arbor.WithAutosave(false),
		arbor.WithEventBuffer(0),
		arbor.WithLogger(slog.Default()),
	)
	if err != nil {
		fatal("Failed to open notes", err)
	}
	for _, w := range nb.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return nb
}

// session opens the notebook, runs fn and saves on the way out. fn returns
// the change reason recorded with a versioned save.
func session(fn func(ctx context.Context, nb *arbor.Notebook) (string, error)) {
	nb := openNotebook()
	ctx := context.Background()

	reason, runErr := fn(ctx, nb)
	if reason != "" {
		ctx = context.WithValue(ctx, core.ChangeReasonKey, reason)
	}
	if err := nb.Close(ctx); err != nil {
		fatal("Failed to save notes", err)
	}
	if runErr != nil {
		fatal("Error", runErr)
	}
}

// changeReason formats the commit message for a change to the notes.
func changeReason(subject string) string {
	return arbor.FormatChangeReason("docs", "notes", subject, "")
}

// resolveID accepts a full id or an unambiguous id prefix.
func resolveID(svc *core.Service, ref string) (string, error) {
	if _, err := svc.Get(ref); err == nil {
		return ref, nil
	}
	var matches []string
	for _, n := range svc.List() {
		if strings.HasPrefix(n.ID, ref) {
			matches = append(matches, n.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", &core.NotFoundError{ID: ref}
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d notes)", ref, len(matches))
	}
}

// noteView is the JSON shape printed by --json.
type noteView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Tags      []string  `json:"tags"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func viewOf(n core.Note) noteView {
	return noteView{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      n.Tags,
		ParentID:  n.ParentID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " [" + strings.Join(tags, ", ") + "]"
}

// printNote prints a one-line summary, or the JSON view.
func printNote(n core.Note) error {
	if jsonOutput {
		return printJSON(viewOf(n))
	}
	fmt.Printf("%s %s%s\n", shortID(n.ID), n.Title, formatTags(n.Tags))
	return nil
}
