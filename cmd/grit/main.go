package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grit-vcs/grit/pkg/porcelain"
)

var (
	jsonOutput bool
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "grit",
		Short:         "Porcelain operations over a content-addressed object store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable result envelopes")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newRmCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newBlameCmd())
	root.AddCommand(newBranchCmd())
	root.AddCommand(newCheckoutCmd())
	root.AddCommand(newMergeCmd())
	root.AddCommand(newResetCmd())
	root.AddCommand(newConflictsCmd())
	root.AddCommand(newTagCmd())
	root.AddCommand(newReflogCmd())
	root.AddCommand(newRevParseCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newRemoteCmd())
	root.AddCommand(newGitCmds()...)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("grit 0.1.0-dev")
		},
	}
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openService() (*porcelain.Service, error) {
	return porcelain.OpenService(".", newLogger())
}

// emit prints a result envelope. In --json mode the whole envelope is
// serialized; otherwise only the message, with a non-nil error returned for
// failed results so the process exits non-zero.
func emit(cmd *cobra.Command, res *porcelain.Result) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("%s", res.Message)
		}
		return nil
	}
	if !res.Success {
		detail := res.Message
		if res.Error != nil {
			detail = fmt.Sprintf("%s: %s", res.Error.Kind, res.Error.Detail)
		}
		return fmt.Errorf("%s", detail)
	}
	fmt.Fprintln(out, res.Message)
	return nil
}
