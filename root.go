package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jkoski/dropship-go/internal/config"
	"github.com/jkoski/dropship-go/internal/dropbox"
	"github.com/jkoski/dropship-go/internal/transfer"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagVerbose    bool
	flagQuiet      bool
)

// cfg holds the effective configuration loaded by PersistentPreRunE.
var cfg *config.Config

// newRootCmd builds the fully-assembled root command. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dropship",
		Short:   "Send exactly one file to Dropbox",
		Long:    "Upload a single file (or a freshly zipped directory) to Dropbox and optionally share it with a password-gated, expiring link.",
		Version: version,
		// Silence Cobra's default error/usage printing — main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			loaded, err := config.Load(flagConfigPath)
			if err != nil {
				return err
			}

			cfg = loaded

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

// buildLogger creates an slog.Logger from the config-file log level, with
// --verbose and --quiet overriding because CLI flags always win.
func buildLogger() *slog.Logger {
	level := slog.LevelWarn

	if cfg != nil {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// stdinIsTerminal reports whether an operator is present to paste an
// authorization code. Cron and pipeline runs must fail fast instead of
// blocking forever on a prompt.
func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newAPIClient resolves credentials (falling back to interactive login when
// permitted) and builds an authenticated API client with the standard
// request timeout.
func newAPIClient(ctx context.Context, interactive bool, logger *slog.Logger) (*dropbox.Client, error) {
	if cfg.AppKey == "" {
		return nil, fmt.Errorf("no app key configured; set app_key in %s or %s", config.DefaultConfigPath(), config.EnvAppKey)
	}

	rec, err := transfer.EnsureCredentials(ctx, cfg.CredentialsPath, cfg.AppKey,
		interactive && stdinIsTerminal(),
		transfer.LoginPrompt{In: os.Stdin, Out: os.Stdout},
		logger,
	)
	if err != nil {
		return nil, err
	}

	token := dropbox.TokenSourceFromRefresh(ctx, cfg.AppKey, rec.RefreshToken, logger)
	httpClient := &http.Client{Timeout: dropbox.RequestTimeout}

	return dropbox.NewClient(dropbox.APIBaseURL, dropbox.ContentBaseURL, httpClient, token, logger), nil
}

// parseRootChoice validates the --root flag.
func parseRootChoice(root string) (useTeamRoot bool, err error) {
	switch root {
	case "team":
		return true, nil
	case "user":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --root %q (must be team or user)", root)
	}
}
