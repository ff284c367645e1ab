// Package transfer composes credential resolution, the upload session
// engine, and shared-link creation into the end-to-end "upload one file,
// optionally share it" operation, plus the symmetric folder-mirror download.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/text/unicode/norm"

	"github.com/jkoski/dropship-go/internal/dropbox"
)

// Settle-poll tuning for shared-link creation. The remote store indexes a
// just-finished upload asynchronously relative to the finish call's return,
// so an immediate link request can target an object that is not yet visible.
// Instead of the blind fixed sleep the poll retries link creation on
// not-yet-indexed classifications, bounded in both delay and attempts.
// TODO: revisit the delay once Dropbox documents an upper bound for
// post-commit indexing; 3s × 10 is operational experience, not a guarantee.
const (
	settleDelay       = 3 * time.Second
	settleMaxAttempts = 10
)

// Request describes one upload operation.
type Request struct {
	Source      string // local file to upload
	Destination string // full remote target path, including the file name
	Autorename  bool   // let the server disambiguate on name collision
	UseTeamRoot bool   // scope paths under the team namespace root
	Password    string // non-empty requests a password-gated shared link
	Expiration  time.Time
}

// Result is the outcome of a completed upload.
type Result struct {
	DropboxPath string
	URL         string // empty when no shared link was requested
}

// Uploader runs upload operations against an authenticated client. The
// client is threaded through explicitly — there is no process-wide
// credential state.
type Uploader struct {
	Client  *dropbox.Client
	History *History // optional; recording failures never fail a transfer
	Logger  *slog.Logger
}

// Run uploads one file and optionally mints a password-gated shared link.
// Failures propagate after being logged; there is no partial rollback, so a
// half-uploaded file is left on the remote store without cleanup.
func (u *Uploader) Run(ctx context.Context, req Request) (*Result, error) {
	client, err := u.scopedClient(ctx, req.UseTeamRoot)
	if err != nil {
		return nil, err
	}

	// Dropbox stores paths NFC-normalized; normalizing up front keeps the
	// requested and reported paths comparable.
	target := norm.NFC.String(req.Destination)

	f, err := os.Open(req.Source)
	if err != nil {
		return nil, fmt.Errorf("transfer: opening source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("transfer: sizing source: %w", err)
	}

	remotePath, err := client.Upload(ctx, f, info.Size(), target, req.Autorename)
	if err != nil {
		u.Logger.Error("upload failed",
			slog.String("source", req.Source),
			slog.String("destination", target),
			slog.String("error", err.Error()),
		)

		return nil, err
	}

	result := &Result{DropboxPath: remotePath}

	if req.Password != "" {
		url, linkErr := u.createLinkSettled(ctx, client, remotePath, req)
		if linkErr != nil {
			u.Logger.Error("shared link creation failed",
				slog.String("path", remotePath),
				slog.String("error", linkErr.Error()),
			)

			return nil, linkErr
		}

		result.URL = url
	}

	u.record(ctx, req.Source, info.Size(), result)

	return result, nil
}

// scopedClient resolves the namespace root. Team mode asks the API for the
// account's root namespace and scopes every subsequent call under it; user
// mode uses the account's home namespace, which may not be what you wanted
// on a team account.
func (u *Uploader) scopedClient(ctx context.Context, useTeamRoot bool) (*dropbox.Client, error) {
	if !useTeamRoot {
		u.Logger.Debug("using user namespace root")
		return u.Client, nil
	}

	account, err := u.Client.CurrentAccount(ctx)
	if err != nil {
		return nil, err
	}

	u.Logger.Debug("using team namespace root",
		slog.String("root_namespace_id", account.RootNamespaceID),
	)

	return u.Client.WithPathRoot(account.RootNamespaceID), nil
}

// createLinkSettled requests the shared link under a bounded poll. Link
// creation is attempted only after the upload has committed — that ordering
// invariant is what the poll preserves while absorbing the indexing lag.
// Only not-found (not yet indexed) and transient transport classifications
// are retried; everything else is terminal on the first attempt.
func (u *Uploader) createLinkSettled(ctx context.Context, client *dropbox.Client, remotePath string, req Request) (string, error) {
	settings := dropbox.SharedLinkSettings{
		RequirePassword: true,
		LinkPassword:    req.Password,
		AllowDownload:   true,
		Expires:         req.Expiration,
	}

	var url string

	backoff := retry.WithMaxRetries(settleMaxAttempts, retry.NewConstant(settleDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var linkErr error

		url, linkErr = client.CreateSharedLink(ctx, remotePath, settings)
		if linkErr == nil {
			return nil
		}

		if errors.Is(linkErr, dropbox.ErrNotFound) || dropbox.IsRetryable(linkErr) {
			u.Logger.Warn("shared link not ready, retrying",
				slog.String("path", remotePath),
				slog.Duration("delay", settleDelay),
				slog.String("error", linkErr.Error()),
			)

			return retry.RetryableError(linkErr)
		}

		return linkErr
	})
	if err != nil {
		return "", err
	}

	return url, nil
}

// record appends the transfer to the history ledger, best-effort.
func (u *Uploader) record(ctx context.Context, source string, size int64, result *Result) {
	if u.History == nil {
		return
	}

	rec := TransferRecord{
		UploadedAt:  time.Now().UTC(),
		Source:      source,
		DropboxPath: result.DropboxPath,
		URL:         result.URL,
		Size:        size,
	}

	if err := u.History.Record(ctx, rec); err != nil {
		u.Logger.Warn("failed to record transfer history",
			slog.String("error", err.Error()),
		)
	}
}
