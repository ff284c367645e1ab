package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jkoski/dropship-go/internal/transfer"
)

func newGetCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "get <remote-folder> <local-dir>",
		Short: "Download an entire Dropbox folder to a local directory",
		Long: `Recursively mirror a remote folder into a local directory.

Requires a saved credential (run "dropship login" first) — bulk retrieval
never prompts interactively.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args, root)
		},
	}

	cmd.Flags().StringVar(&root, "root", "team", "namespace root to resolve paths under (team or user)")

	return cmd
}

func runGet(cmd *cobra.Command, args []string, root string) error {
	logger := buildLogger()
	remotePath, localDir := args[0], args[1]

	useTeamRoot, err := parseRootChoice(root)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	client, err := newAPIClient(ctx, false, logger)
	if err != nil {
		return err
	}

	if useTeamRoot {
		account, err := client.CurrentAccount(ctx)
		if err != nil {
			return err
		}

		client = client.WithPathRoot(account.RootNamespaceID)
	}

	files, folders, err := transfer.Mirror(ctx, client, remotePath, localDir, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d files and %d folders\n", files, folders)

	return nil
}
