package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jkoski/dropship-go/internal/credfile"
	"github.com/jkoski/dropship-go/internal/dropbox"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate without transferring anything",
		Long: `Run the interactive login handshake and save the resulting refresh token.

This always re-authenticates, replacing any cached credential. Uploads and
downloads reuse the saved credential and never prompt unless it is missing.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()

	if cfg.AppKey == "" {
		return fmt.Errorf("no app key configured; set app_key in the config file or DROPSHIP_APP_KEY")
	}

	if !stdinIsTerminal() {
		return fmt.Errorf("login requires a terminal to paste the access code")
	}

	creds, err := dropbox.Login(cmd.Context(), cfg.AppKey, os.Stdin, os.Stdout, logger)
	if err != nil {
		return err
	}

	rec := &credfile.Record{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		AccountID:    creds.AccountID,
		Scope:        creds.Scope,
		Expiration:   creds.Expiry,
	}

	if err := credfile.Save(cfg.CredentialsPath, cfg.AppKey, rec); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Credential saved to %s\n", cfg.CredentialsPath)

	return nil
}
