package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grit-vcs/grit/pkg/repo"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write repository configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "user [name] [email]",
		Short: "Show or set the author identity",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if len(args) == 0 {
				id, err := r.UserIdentity()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id.String())
				return nil
			}
			if len(args) != 2 {
				return fmt.Errorf("both name and email are required to set the identity")
			}
			return r.SetUserIdentity(args[0], args[1])
		},
	})

	return cmd
}

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage remote URLs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <url>",
		Short: "Record a remote URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			return r.SetRemote(args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <name>",
		Short: "Print a remote URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			url, err := r.RemoteURL(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	})

	return cmd
}
