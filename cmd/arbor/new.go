package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/core"
)

var (
	newParent  string
	newContent string
	newTags    []string
)

var newCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a note",
	Long: `Create a note at the root level, or under --parent.
A blank title becomes "Untitled Note". Pass --content - to read the body from stdin.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		title := ""
		if len(args) == 1 {
			title = args[0]
		}
		content := newContent
		if content == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fatal("Failed to read stdin", err)
			}
			content = string(data)
		}

		session(func(ctx context.Context, nb *arbor.Notebook) (string, error) {
			parent := ""
			if newParent != "" {
				id, err := resolveID(nb.Service, newParent)
				if err != nil {
					return "", err
				}
				parent = id
			}
			res, err := nb.Service.Execute(ctx, core.CreateCommand{
				ParentID: parent,
				Title:    title,
				Content:  content,
				Tags:     newTags,
			})
			if err != nil {
				return "", err
			}
			return changeReason("create " + res.Note.Title), printNote(*res.Note)
		})
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVarP(&newParent, "parent", "p", "", "Parent note id (or unique prefix)")
	newCmd.Flags().StringVarP(&newContent, "content", "c", "", "Note content (- reads stdin)")
	newCmd.Flags().StringSliceVarP(&newTags, "tag", "t", nil, "Tag (repeatable)")
}
