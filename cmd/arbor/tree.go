package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/core"
)

var treeCmd = &cobra.Command{
	Use:   "tree [id]",
	Short: "Print the note hierarchy",
	Long:  `Print every note as an indented tree, or only the subtree rooted at [id].`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session(func(ctx context.Context, nb *arbor.Notebook) (string, error) {
			roots := nb.Service.Roots()
			if len(args) == 1 {
				id, err := resolveID(nb.Service, args[0])
				if err != nil {
					return "", err
				}
				n, err := nb.Service.Get(id)
				if err != nil {
					return "", err
				}
				roots = []core.Note{n}
			}
			if jsonOutput {
				return "", printJSON(buildTree(nb.Service, roots))
			}
			for _, n := range roots {
				printTree(nb.Service, n, 0)
			}
			return "", nil
		})
	},
}

type treeNode struct {
	noteView
	Children []treeNode `json:"children,omitempty"`
}

func buildTree(svc *core.Service, notes []core.Note) []treeNode {
	out := make([]treeNode, 0, len(notes))
	for _, n := range notes {
		children, _ := svc.Children(n.ID)
		view := viewOf(n)
		view.Content = ""
		out = append(out, treeNode{noteView: view, Children: buildTree(svc, children)})
	}
	return out
}

func printTree(svc *core.Service, n core.Note, depth int) {
	fmt.Printf("%s%s %s%s\n", strings.Repeat("  ", depth), shortID(n.ID), n.Title, formatTags(n.Tags))
	children, _ := svc.Children(n.ID)
	for _, c := range children {
		printTree(svc, c, depth+1)
	}
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session(func(ctx context.Context, nb *arbor.Notebook) (string, error) {
			id, err := resolveID(nb.Service, args[0])
			if err != nil {
				return "", err
			}
			path, err := nb.Service.Path(id)
			if err != nil {
				return "", err
			}
			n := path[len(path)-1]
			if jsonOutput {
				return "", printJSON(viewOf(n))
			}

			titles := make([]string, 0, len(path))
			for _, p := range path {
				titles = append(titles, p.Title)
			}
			fmt.Printf("# %s\n", n.Title)
			fmt.Printf("id:      %s\n", n.ID)
			fmt.Printf("path:    %s\n", strings.Join(titles, " / "))
			if len(n.Tags) > 0 {
				fmt.Printf("tags:    %s\n", strings.Join(n.Tags, ", "))
			}
			fmt.Printf("created: %s\n", n.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("updated: %s\n", n.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			if n.Content != "" {
				fmt.Printf("\n%s\n", n.Content)
			}
			return "", nil
		})
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(showCmd)
}
