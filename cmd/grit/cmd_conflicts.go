package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grit-vcs/grit/pkg/porcelain"
	"github.com/grit-vcs/grit/pkg/repo"
)

func newConflictsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Inspect and resolve merge conflicts",
	}
	cmd.AddCommand(newConflictsListCmd())
	cmd.AddCommand(newConflictsResolveCmd())
	return cmd
}

func newConflictsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List conflicted paths with their three sides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}

			res := svc.Conflicts(cmd.Context())
			if jsonOutput || !res.Success {
				return emit(cmd, res)
			}

			entries := res.Data.([]porcelain.ConflictData)
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no conflicts")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s\n", e.Path)
				printConflictSide(cmd, "base", e.Ancestor)
				printConflictSide(cmd, "ours", e.Ours)
				printConflictSide(cmd, "theirs", e.Theirs)
			}
			return nil
		},
	}
}

func printConflictSide(cmd *cobra.Command, label string, side *porcelain.ConflictSideData) {
	out := cmd.OutOrStdout()
	if side == nil {
		fmt.Fprintf(out, "  %-6s (absent)\n", label)
		return
	}
	short := side.Blob
	if len(short) > 8 {
		short = short[:8]
	}
	fmt.Fprintf(out, "  %-6s %s %s\n", label, short, side.Mode)
}

func newConflictsResolveCmd() *cobra.Command {
	var useOurs bool
	var useTheirs bool
	var contentFile string

	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a conflicted path with ours, theirs, or custom content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}

			var strategy repo.ResolutionStrategy
			var content []byte
			switch {
			case useOurs && useTheirs:
				return fmt.Errorf("--ours and --theirs are mutually exclusive")
			case useOurs:
				strategy = repo.ResolveOurs
			case useTheirs:
				strategy = repo.ResolveTheirs
			case contentFile != "":
				strategy = repo.ResolveCustom
				content, err = os.ReadFile(contentFile)
				if err != nil {
					return fmt.Errorf("read resolution content: %w", err)
				}
			default:
				return fmt.Errorf("one of --ours, --theirs, or --file is required")
			}

			return emit(cmd, svc.Resolve(cmd.Context(), args[0], strategy, content))
		},
	}

	cmd.Flags().BoolVar(&useOurs, "ours", false, "keep our side")
	cmd.Flags().BoolVar(&useTheirs, "theirs", false, "take their side")
	cmd.Flags().StringVar(&contentFile, "file", "", "resolve with the contents of this file")

	return cmd
}
