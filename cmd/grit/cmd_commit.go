package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grit-vcs/grit/pkg/porcelain"
	"github.com/grit-vcs/grit/pkg/repo"
)

func newCommitCmd() *cobra.Command {
	var message string
	var author string
	var amend bool
	var signKey string
	var sign bool

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record changes to the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}

			opts := repo.CommitOptions{
				Message: message,
				Author:  author,
				Amend:   amend,
			}
			if sign || signKey != "" {
				signer, keyPath, err := newSSHCommitSigner(signKey)
				if err != nil {
					return err
				}
				opts.Signer = signer
				if verbose {
					fmt.Fprintf(cmd.ErrOrStderr(), "signing with %s\n", keyPath)
				}
			}

			res := svc.Commit(cmd.Context(), opts)
			if jsonOutput || !res.Success {
				return emit(cmd, res)
			}

			data := res.Data.(*porcelain.CommitData)
			branch := data.Branch
			if branch == "" {
				branch = "HEAD"
			}
			short := data.Hash
			if len(short) > 8 {
				short = short[:8]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, short, message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", "override author identity (\"Name <email>\")")
	cmd.Flags().BoolVar(&amend, "amend", false, "replace the current HEAD commit")
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign the commit with the default SSH key")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "sign the commit with the given SSH private key")

	return cmd
}
