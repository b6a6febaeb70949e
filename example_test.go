package arbor_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/core"
)

// Example_basic demonstrates how to open a notebook, build a small tree and
// search it.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "arbor-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	nb, err := arbor.Open(filepath.Join(tmpDir, "notes.json"), arbor.WithAutosave(false))
	if err != nil {
		log.Fatal(err)
	}
	defer nb.Close(ctx)

	projects, err := nb.Service.Create(ctx, core.CreateInput{Title: "Projects", Tags: []string{"work"}})
	if err != nil {
		log.Fatal(err)
	}
	if _, err := nb.Service.Create(ctx, core.CreateInput{
		ParentID: projects.ID,
		Title:    "Release plan",
		Content:  "ship the proj",
		Tags:     []string{"Urgent"},
	}); err != nil {
		log.Fatal(err)
	}

	results, err := nb.Service.Search(ctx, core.Query{Text: "proj", Tags: []string{"urgent"}})
	if err != nil {
		log.Fatal(err)
	}
	for n := range results {
		path, _ := nb.Service.Path(n.ID)
		fmt.Printf("%s (under %s) %v\n", n.Title, path[0].Title, n.Tags)
	}
	// Output:
	// Release plan (under Projects) [urgent]
}

// Example_corruptStore shows that a damaged file is preserved rather than
// failing the open.
func Example_corruptStore() {
	tmpDir, err := os.MkdirTemp("", "arbor-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "notes.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0644); err != nil {
		log.Fatal(err)
	}

	nb, err := arbor.Open(path, arbor.WithAutosave(false))
	if err != nil {
		log.Fatal(err)
	}
	defer nb.Close(context.Background())

	backups, _ := filepath.Glob(path + ".corrupt-*")
	fmt.Println("notes:", nb.Service.Len())
	fmt.Println("warnings:", len(nb.Warnings()))
	fmt.Println("backups:", len(backups))
	// Output:
	// notes: 0
	// warnings: 1
	// backups: 1
}
