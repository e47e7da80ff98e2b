package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grit-vcs/grit/pkg/repo"
)

func newResetCmd() *cobra.Command {
	var soft bool
	var mixed bool
	var hard bool

	cmd := &cobra.Command{
		Use:   "reset [target] [-- <paths...>]",
		Short: "Reset HEAD, index, or paths to a commit",
		Long: `Reset HEAD, index, or paths to a commit.

Without paths, moves the current branch to the target (default HEAD):
--soft moves HEAD only, --mixed (the default) also rebuilds the index,
--hard also rewrites the working tree. With paths after "--", restores
only the matched index entries from the target and leaves HEAD and the
working tree alone.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}

			mode := repo.ResetMixed
			switch {
			case soft && (mixed || hard), mixed && hard:
				return fmt.Errorf("at most one of --soft, --mixed, --hard may be given")
			case soft:
				mode = repo.ResetSoft
			case hard:
				mode = repo.ResetHard
			}

			opts := repo.ResetOptions{Mode: mode}
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				head, paths := args[:dash], args[dash:]
				if len(head) > 1 {
					return fmt.Errorf("at most one target revision before --")
				}
				if len(head) == 1 {
					opts.Target = head[0]
				}
				opts.Paths = paths
			} else {
				switch len(args) {
				case 0:
				case 1:
					opts.Target = args[0]
				default:
					// Multiple bare args: treat the first as target and the
					// rest as paths, matching the common git calling shape.
					opts.Target = args[0]
					opts.Paths = args[1:]
				}
			}

			return emit(cmd, svc.Reset(cmd.Context(), opts))
		},
	}

	cmd.Flags().BoolVar(&soft, "soft", false, "move HEAD only")
	cmd.Flags().BoolVar(&mixed, "mixed", false, "move HEAD and rebuild the index (default)")
	cmd.Flags().BoolVar(&hard, "hard", false, "move HEAD, rebuild index and working tree")

	return cmd
}
