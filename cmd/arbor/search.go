package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/core"
)

var (
	searchTags  []string
	searchAll   bool
	searchUnder string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search notes by text and tags",
	Long: `Search titles and contents case-insensitively. --tag keeps notes carrying any
of the given tags (all of them with --all); tags may be globs such as "proj/*".
Results are listed most recently updated first.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		session(func(ctx context.Context, nb *arbor.Notebook) (string, error) {
			q := core.Query{
				Text:  strings.Join(args, " "),
				Tags:  searchTags,
				Limit: searchLimit,
			}
			if searchAll {
				q.TagMode = core.MatchAll
			}
			if searchUnder != "" {
				id, err := resolveID(nb.Service, searchUnder)
				if err != nil {
					return "", err
				}
				q.SubtreeOf = id
			}

			res, err := nb.Service.Execute(ctx, core.SearchCommand{Query: q})
			if err != nil {
				return "", err
			}
			if jsonOutput {
				views := make([]noteView, 0, len(res.Notes))
				for _, n := range res.Notes {
					views = append(views, viewOf(n))
				}
				return "", printJSON(views)
			}
			for _, n := range res.Notes {
				fmt.Printf("%s %s%s  (%s)\n", shortID(n.ID), n.Title, formatTags(n.Tags), n.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return "", nil
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringSliceVarP(&searchTags, "tag", "t", nil, "Filter by tag or tag glob (repeatable)")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "Require every --tag instead of any")
	searchCmd.Flags().StringVar(&searchUnder, "under", "", "Restrict to a note and its descendants")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum number of results (0 = no limit)")
}
