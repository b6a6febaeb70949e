// Package arbor is the Composition Root for the arbor note manager.
//
// It connects the note management core (pkg/core) with a storage adapter
// and the autosave scheduler, so applications only deal with a Notebook.
//
// A notebook is a tree of notes persisted as one JSON or YAML file (or a
// SQLite database). Every change goes through the command controller
// (core.Service), which validates before it mutates; the scheduler writes
// dirty collections in the background and Close performs a final save.
//
// Usage:
//
//	nb, err := arbor.Open("notes.json", arbor.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer nb.Close(ctx)
//
//	root, err := nb.Service.Create(ctx, core.CreateInput{Title: "Projects"})
//
// A corrupt file does not fail Open: the original is preserved next to it,
// the notebook starts empty and Warnings explains what happened.
package arbor
