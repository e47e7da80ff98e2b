package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/grit-vcs/grit/pkg/gittool"
	"github.com/grit-vcs/grit/pkg/repo"
)

// newGitCmds builds one passthrough command per delegated git subcommand.
// These operate directly on the working tree and object database of the
// external git binary, so they require a real .git alongside the grit state;
// we only guarantee the working directory is a grit repository root.
func newGitCmds() []*cobra.Command {
	names := make([]string, 0, len(gittool.Delegated))
	for name := range gittool.Delegated {
		names = append(names, name)
	}
	sort.Strings(names)

	cmds := make([]*cobra.Command, 0, len(names))
	for _, name := range names {
		name := name
		cmds = append(cmds, &cobra.Command{
			Use:                name + " [args...]",
			Short:              "Delegate '" + name + "' to the external git binary",
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				r, err := repo.Open(".")
				if err != nil {
					return err
				}
				tool := &gittool.ExecTool{}
				gitArgs := append([]string{name}, args...)
				return tool.Stream(cmd.Context(), r.RootDir, cmd.OutOrStdout(), cmd.ErrOrStderr(), gitArgs...)
			},
		})
	}
	return cmds
}
