package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grit-vcs/grit/pkg/repo"
)

func newCheckoutCmd() *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "checkout <branch-or-revision>",
		Short: "Switch branches or check out a revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			target := args[0]
			if create {
				head, err := r.RevParseCommit("HEAD")
				if err != nil {
					return err
				}
				if err := r.CreateBranch(target, head); err != nil {
					return err
				}
			}
			if err := r.Checkout(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "switched to %s\n", target)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&create, "create", "b", false, "create the branch before switching")

	return cmd
}
