package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/core"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List every tag with the number of notes carrying it",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		session(func(ctx context.Context, nb *arbor.Notebook) (string, error) {
			tags := nb.Service.Tags()
			if jsonOutput {
				return "", printJSON(tags)
			}
			for _, t := range tags {
				fmt.Printf("%-30s %d\n", t.Tag, t.Count)
			}
			return "", nil
		})
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Add or remove tags on a note",
}

var tagAddCmd = &cobra.Command{
	Use:   "add [id] [tag...]",
	Short: "Add tags to a note",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runTagCommand(args[0], args[1:], "tag", func(id, tag string) core.Command {
			return core.AddTagCommand{ID: id, Tag: tag}
		})
	},
}

var tagRmCmd = &cobra.Command{
	Use:   "rm [id] [tag...]",
	Short: "Remove tags from a note",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runTagCommand(args[0], args[1:], "untag", func(id, tag string) core.Command {
			return core.RemoveTagCommand{ID: id, Tag: tag}
		})
	},
}

func runTagCommand(ref string, tags []string, verb string, build func(id, tag string) core.Command) {
	session(func(ctx context.Context, nb *arbor.Notebook) (string, error) {
		id, err := resolveID(nb.Service, ref)
		if err != nil {
			return "", err
		}
		var last core.Result
		for _, tag := range tags {
			if last, err = nb.Service.Execute(ctx, build(id, tag)); err != nil {
				return "", err
			}
		}
		reason := changeReason(fmt.Sprintf("%s %s: %s", verb, last.Note.Title, strings.Join(tags, ", ")))
		return reason, printNote(*last.Note)
	})
}

func init() {
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(tagCmd)
	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagRmCmd)
}
