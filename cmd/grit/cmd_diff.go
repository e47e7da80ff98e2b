package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grit-vcs/grit/pkg/porcelain"
	"github.com/grit-vcs/grit/pkg/repo"
)

func newDiffCmd() *cobra.Command {
	var staged bool
	var contextLines int
	var pathFilter string

	cmd := &cobra.Command{
		Use:   "diff [from] [to]",
		Short: "Show changes between snapshots",
		Long: `Show changes between snapshots.

With no revisions, compares HEAD against the working tree. With --staged,
compares HEAD against the index. One revision compares that tree against
the working tree; two revisions compare the two trees.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}

			opts := repo.DiffOptions{
				Staged:       staged,
				PathFilter:   pathFilter,
				ContextLines: contextLines,
			}
			if len(args) > 0 {
				opts.From = args[0]
			}
			if len(args) > 1 {
				opts.To = args[1]
			}

			res := svc.Diff(cmd.Context(), opts)
			if jsonOutput || !res.Success {
				return emit(cmd, res)
			}

			data := res.Data.(*porcelain.DiffData)
			out := cmd.OutOrStdout()
			for _, f := range data.Files {
				switch f.Status {
				case "renamed":
					fmt.Fprintf(out, "renamed: %s -> %s\n", f.OldPath, f.Path)
					continue
				case "added":
					fmt.Fprintf(out, "added: %s\n", f.Path)
				case "deleted":
					fmt.Fprintf(out, "deleted: %s\n", f.Path)
				case "conflicted":
					fmt.Fprintf(out, "conflicted: %s\n", f.Path)
					continue
				case "unreadable":
					fmt.Fprintf(out, "unreadable: %s\n", f.Path)
					continue
				case "typechange":
					fmt.Fprintf(out, "mode changed: %s\n", f.Path)
					continue
				default:
					fmt.Fprintf(out, "modified: %s\n", f.Path)
				}
				if f.Binary {
					fmt.Fprintf(out, "  (binary, %d -> %d bytes)\n", f.OldSize, f.NewSize)
					continue
				}
				for _, h := range f.Hunks {
					fmt.Fprintf(out, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
					for _, line := range h.Lines {
						fmt.Fprintf(out, "%s%s\n", line.Origin, line.Content)
					}
				}
			}
			fmt.Fprintf(out, "%d files changed, %d insertions(+), %d deletions(-)\n",
				data.FilesChanged, data.Additions, data.Deletions)
			return nil
		},
	}

	cmd.Flags().BoolVar(&staged, "staged", false, "compare HEAD against the index")
	cmd.Flags().IntVarP(&contextLines, "context", "U", 3, "lines of context around changes")
	cmd.Flags().StringVar(&pathFilter, "path", "", "restrict the diff to paths under this prefix")

	return cmd
}
