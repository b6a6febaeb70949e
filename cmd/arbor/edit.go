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
	editContent string
	editTags    []string
)

var renameCmd = &cobra.Command{
	Use:   "rename [id] [title]",
	Short: "Rename a note",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		session(func(ctx context.Context, nb *arbor.Notebook) (string, error) {
			id, err := resolveID(nb.Service, args[0])
			if err != nil {
				return "", err
			}
			res, err := nb.Service.Execute(ctx, core.RenameCommand{ID: id, Title: args[1]})
			if err != nil {
				return "", err
			}
			return changeReason("rename " + res.Note.Title), printNote(*res.Note)
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Replace the content and/or tags of a note",
	Long: `Replace the content (--content, - reads stdin) and/or the full tag set (--tag)
of a note. Flags that are not given keep their current value.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		contentSet := cmd.Flags().Changed("content")
		tagsSet := cmd.Flags().Changed("tag")
		content := editContent
		if contentSet && content == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fatal("Failed to read stdin", err)
			}
			content = string(data)
		}

		session(func(ctx context.Context, nb *arbor.Notebook) (string, error) {
			id, err := resolveID(nb.Service, args[0])
			if err != nil {
				return "", err
			}
			current, err := nb.Service.Get(id)
			if err != nil {
				return "", err
			}
			if !contentSet {
				content = current.Content
			}
			tags := current.Tags
			if tagsSet {
				tags = editTags
			}
			res, err := nb.Service.Execute(ctx, core.EditCommand{ID: id, Content: content, Tags: tags})
			if err != nil {
				return "", err
			}
			return changeReason("edit " + res.Note.Title), printNote(*res.Note)
		})
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVarP(&editContent, "content", "c", "", "New content (- reads stdin)")
	editCmd.Flags().StringSliceVarP(&editTags, "tag", "t", nil, "New tag set (repeatable)")
}
