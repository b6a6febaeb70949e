package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/core"
)

var deleteSubtree bool

var moveCmd = &cobra.Command{
	Use:   "move [id] [parent]",
	Short: "Move a note under another note, or to the root level",
	Long:  `Move a note under [parent]. Without [parent] the note becomes a root. Moving a note under itself or one of its descendants is rejected.`,
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		session(func(ctx context.Context, nb *arbor.Notebook) (string, error) {
			id, err := resolveID(nb.Service, args[0])
			if err != nil {
				return "", err
			}
			parent := ""
			if len(args) == 2 {
				if parent, err = resolveID(nb.Service, args[1]); err != nil {
					return "", err
				}
			}
			res, err := nb.Service.Execute(ctx, core.MoveCommand{ID: id, ParentID: parent})
			if err != nil {
				return "", err
			}
			return changeReason("move " + res.Note.Title), printNote(*res.Note)
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a note",
	Long: `Delete a note. Its children move up to its parent unless --subtree is given,
in which case every descendant is deleted too.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		policy := core.ReparentChildren
		if deleteSubtree {
			policy = core.DeleteSubtree
		}
		session(func(ctx context.Context, nb *arbor.Notebook) (string, error) {
			id, err := resolveID(nb.Service, args[0])
			if err != nil {
				return "", err
			}
			note, err := nb.Service.Get(id)
			if err != nil {
				return "", err
			}
			res, err := nb.Service.Execute(ctx, core.DeleteCommand{ID: id, Policy: policy})
			if err != nil {
				return "", err
			}
			if jsonOutput {
				return changeReason("delete " + note.Title), printJSON(res.Removed)
			}
			fmt.Printf("Deleted %d note(s)\n", len(res.Removed))
			return changeReason("delete " + note.Title), nil
		})
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(rmCmd)
	rmCmd.Flags().BoolVar(&deleteSubtree, "subtree", false, "Delete all descendants as well")
}
