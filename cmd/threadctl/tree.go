package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"threadline/internal/models"
	"threadline/internal/repository"
	"threadline/internal/service"

	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:     "tree <thread-id>",
	Short:   "Print a thread with its full reply tree",
	GroupID: "data",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUintArg(args[0], "thread id")
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		_, rt, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close(ctx)

		tree, err := service.NewTreeAssembler(repository.NewThreadRepository(rt.DB)).Assemble(ctx, id)
		if err != nil {
			return err
		}

		var viewer *uint
		if v, _ := cmd.Flags().GetUint("viewer"); v != 0 {
			viewer = &v
		}
		service.AnnotateTree(tree, viewer)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tree)
		}
		renderTree(cmd.OutOrStdout(), tree)
		return nil
	},
}

func init() {
	treeCmd.Flags().Uint("viewer", 0, "Annotate likes for this user id")
	treeCmd.Flags().Bool("json", false, "Print JSON instead of a tree")
	rootCmd.AddCommand(treeCmd)
}

// renderTree prints node and its replies with box-drawing connectors.
func renderTree(w io.Writer, root *models.TreeNode) {
	fmt.Fprintln(w, nodeLine(root))

	type frame struct {
		node   *models.TreeNode
		prefix string
		last   bool
	}
	stack := make([]frame, 0, len(root.Children))
	pushChildren := func(n *models.TreeNode, prefix string) {
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n.Children[i], prefix, i == len(n.Children)-1})
		}
	}
	pushChildren(root, "")

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		connector, next := "├── ", "│   "
		if f.last {
			connector, next = "└── ", "    "
		}
		fmt.Fprintln(w, f.prefix+connector+nodeLine(f.node))
		pushChildren(f.node, f.prefix+next)
	}
}

func nodeLine(n *models.TreeNode) string {
	text := strings.ReplaceAll(n.Content, "\n", " ")
	if r := []rune(text); len(r) > 60 {
		text = string(r[:57]) + "..."
	}
	line := fmt.Sprintf("#%d @%s: %s", n.ID, n.Author.Username, text)
	if n.LikeCount > 0 {
		line += fmt.Sprintf(" (%d likes)", n.LikeCount)
	}
	if n.IsLiked {
		line += " *"
	}
	return line
}

func parseUintArg(s, what string) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return uint(v), nil
}
