package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grit-vcs/grit/pkg/repo"
)

func newBlameCmd() *cobra.Command {
	var rev string

	cmd := &cobra.Command{
		Use:   "blame <path>",
		Short: "Show line-by-line commit attribution for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			result, err := r.Blame(args[0], rev)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			width := len(fmt.Sprintf("%d", len(result.Lines)))
			for _, line := range result.Lines {
				fmt.Fprintf(out, "%s (%s %*d) %s\n",
					line.Commit.Short(), line.Author, width, line.Line, line.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rev, "rev", "", "revision to blame (default HEAD)")

	return cmd
}
