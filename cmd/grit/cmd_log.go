package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/grit-vcs/grit/pkg/object"
	"github.com/grit-vcs/grit/pkg/repo"
)

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			start := "HEAD"
			if len(args) == 1 {
				start = args[0]
			}
			startHash, err := r.RevParseCommit(start)
			if err != nil {
				return err
			}

			entries, err := r.Log(startHash, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			headHash, _ := r.ResolveRef("HEAD")
			branchName := ""
			if head, err := r.Head(); err == nil && strings.HasPrefix(head, "refs/heads/") {
				branchName = strings.TrimPrefix(head, "refs/heads/")
			}

			out := cmd.OutOrStdout()
			for _, entry := range entries {
				c := entry.Commit
				decoration := buildDecoration(entry.Hash, headHash, branchName)

				if oneline {
					if decoration != "" {
						fmt.Fprintf(out, "%s %s %s\n", entry.Hash.Short(), decoration, firstLine(c.Message))
					} else {
						fmt.Fprintf(out, "%s %s\n", entry.Hash.Short(), firstLine(c.Message))
					}
					continue
				}

				if decoration != "" {
					fmt.Fprintf(out, "commit %s %s\n", entry.Hash, decoration)
				} else {
					fmt.Fprintf(out, "commit %s\n", entry.Hash)
				}
				if len(c.Parents) > 1 {
					shorts := make([]string, len(c.Parents))
					for i, p := range c.Parents {
						shorts[i] = p.Short()
					}
					fmt.Fprintf(out, "Merge:  %s\n", strings.Join(shorts, " "))
				}
				fmt.Fprintf(out, "Author: %s\n", c.Author)
				fmt.Fprintf(out, "Date:   %s\n", time.Unix(c.Timestamp, 0).Format("2006-01-02 15:04:05"))
				fmt.Fprintln(out)
				fmt.Fprintf(out, "    %s\n", c.Message)
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show")

	return cmd
}

// buildDecoration returns "(HEAD -> main)" when the commit is the current
// HEAD, or "" otherwise.
func buildDecoration(commitHash, headHash object.Hash, branchName string) string {
	if commitHash != headHash {
		return ""
	}
	if branchName != "" {
		return "(HEAD -> " + branchName + ")"
	}
	return "(HEAD)"
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
