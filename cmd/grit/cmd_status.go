package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grit-vcs/grit/pkg/porcelain"
)

func newStatusCmd() *cobra.Command {
	var showIgnored bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}

			res := svc.Status(cmd.Context())
			if jsonOutput || !res.Success {
				return emit(cmd, res)
			}

			data := res.Data.(*porcelain.StatusData)
			out := cmd.OutOrStdout()

			if data.Detached {
				fmt.Fprintln(out, "HEAD detached")
			} else {
				fmt.Fprintf(out, "on %s\n", data.Branch)
			}

			var conflicts, staged, unstaged, untracked []string
			for _, f := range data.Files {
				switch {
				case f.Staged == "conflict" || f.Worktree == "conflict":
					conflicts = append(conflicts, fmt.Sprintf("  ! %s", f.Path))
				case f.Staged == "untracked":
					if f.Worktree == "renamed" {
						unstaged = append(unstaged, fmt.Sprintf("  R %s -> %s", f.RenamedFrom, f.Path))
					} else {
						untracked = append(untracked, fmt.Sprintf("  %s", f.Path))
					}
					continue
				}

				switch f.Staged {
				case "new":
					staged = append(staged, fmt.Sprintf("  + %s", f.Path))
				case "modified":
					staged = append(staged, fmt.Sprintf("  ~ %s", f.Path))
				case "renamed":
					staged = append(staged, fmt.Sprintf("  R %s -> %s", f.RenamedFrom, f.Path))
				case "deleted":
					staged = append(staged, fmt.Sprintf("  - %s", f.Path))
				}
				switch f.Worktree {
				case "dirty":
					unstaged = append(unstaged, fmt.Sprintf("  ~ %s", f.Path))
				case "deleted":
					unstaged = append(unstaged, fmt.Sprintf("  - %s", f.Path))
				}
			}

			printSection(cmd, "conflicts:", conflicts)
			printSection(cmd, "staged:", staged)
			printSection(cmd, "unstaged:", unstaged)
			printSection(cmd, "untracked:", untracked)
			if showIgnored {
				var lines []string
				for _, p := range data.Ignored {
					lines = append(lines, fmt.Sprintf("  %s", p))
				}
				printSection(cmd, "ignored:", lines)
			}

			if data.Clean {
				fmt.Fprintln(out, "working tree clean")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showIgnored, "ignored", false, "also list ignored paths")
	return cmd
}

func printSection(cmd *cobra.Command, header string, lines []string) {
	if len(lines) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, header)
	for _, s := range lines {
		fmt.Fprintln(out, s)
	}
}
