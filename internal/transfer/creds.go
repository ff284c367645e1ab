package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jkoski/dropship-go/internal/credfile"
	"github.com/jkoski/dropship-go/internal/dropbox"
)

// ErrNoCredential is returned when no credential record exists and the run
// is not allowed to prompt (non-interactive, e.g. cron). It is a normal
// first-run condition only when interactive login is permitted.
var ErrNoCredential = errors.New("transfer: no saved credential; run `dropship login` first")

// LoginPrompt carries the reader/writer pair the interactive login handshake
// blocks on (stdin/stdout in the CLI, buffers in tests).
type LoginPrompt struct {
	In  io.Reader
	Out io.Writer
}

// EnsureCredentials loads the credential record for appKey, falling back to
// the interactive login handshake when none exists and prompting is allowed.
// A freshly minted credential is persisted before being returned, so the
// cut-and-paste nonsense happens at most once per host.
func EnsureCredentials(
	ctx context.Context,
	credPath, appKey string,
	interactive bool,
	prompt LoginPrompt,
	logger *slog.Logger,
) (*credfile.Record, error) {
	rec, err := credfile.Load(credPath, appKey)
	if err != nil {
		return nil, err
	}

	if rec != nil {
		logger.Debug("loaded saved credential",
			slog.String("path", credPath),
			slog.String("account_id", rec.AccountID),
		)

		return rec, nil
	}

	if !interactive {
		logger.Error("credential file missing in non-interactive mode",
			slog.String("path", credPath),
		)

		return nil, ErrNoCredential
	}

	creds, err := dropbox.Login(ctx, appKey, prompt.In, prompt.Out, logger)
	if err != nil {
		return nil, err
	}

	rec = &credfile.Record{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		AccountID:    creds.AccountID,
		Scope:        creds.Scope,
		Expiration:   creds.Expiry,
	}

	if err := credfile.Save(credPath, appKey, rec); err != nil {
		return nil, fmt.Errorf("persisting credential: %w", err)
	}

	logger.Info("credential saved",
		slog.String("path", credPath),
	)

	return rec, nil
}
