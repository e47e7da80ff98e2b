package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grit-vcs/grit/pkg/object"
	"github.com/grit-vcs/grit/pkg/repo"
)

func newRevParseCmd() *cobra.Command {
	var peelCommit bool
	var peelTree bool

	cmd := &cobra.Command{
		Use:   "rev-parse <expression...>",
		Short: "Resolve revision expressions to object hashes",
		Long: `Resolve revision expressions to object hashes.

Expressions support ref names (HEAD, branches, tags), full hashes,
unambiguous hash prefixes, ancestry operators (rev~N, rev^N), and the
peel suffixes rev^{commit} and rev^{tree}.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if peelCommit && peelTree {
				return fmt.Errorf("--commit and --tree are mutually exclusive")
			}

			out := cmd.OutOrStdout()
			for _, expr := range args {
				var h object.Hash
				switch {
				case peelCommit:
					h, err = r.RevParseCommit(expr)
				case peelTree:
					h, err = r.RevParseTree(expr)
				default:
					h, err = r.RevParse(expr)
				}
				if err != nil {
					return fmt.Errorf("%s: %w", expr, err)
				}
				fmt.Fprintln(out, h)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&peelCommit, "commit", false, "peel the result to a commit")
	cmd.Flags().BoolVar(&peelTree, "tree", false, "peel the result to a tree")

	return cmd
}
