package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grit-vcs/grit/pkg/porcelain"
	"github.com/grit-vcs/grit/pkg/repo"
)

func newMergeCmd() *cobra.Command {
	var message string
	var noCommit bool
	var noFF bool
	var abort bool

	cmd := &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch into the current branch",
		Args: func(cmd *cobra.Command, args []string) error {
			if abort {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}

			if abort {
				report, err := svc.Repo().Reset(repo.ResetOptions{Mode: repo.ResetHard})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "merge aborted, back at %s\n", report.Target.Short())
				return nil
			}

			res := svc.Merge(cmd.Context(), args[0], repo.MergeOptions{
				Message:  message,
				NoCommit: noCommit,
				NoFF:     noFF,
			})
			if jsonOutput {
				return emit(cmd, res)
			}

			out := cmd.OutOrStdout()
			if data, okData := res.Data.(*porcelain.MergeData); okData {
				for _, p := range data.Conflicted {
					fmt.Fprintf(out, "  CONFLICT: %s\n", p)
				}
				if data.Kind == string(repo.MergeConflicted) {
					fmt.Fprintln(out, res.Message)
					fmt.Fprintln(out, "fix conflicts and run grit commit")
					return nil
				}
			}
			return emit(cmd, res)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "merge commit message")
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "stage the merge result without committing")
	cmd.Flags().BoolVar(&noFF, "no-ff", false, "always create a merge commit, even when fast-forward is possible")
	cmd.Flags().BoolVar(&abort, "abort", false, "abandon an in-progress merge and restore HEAD")

	return cmd
}
