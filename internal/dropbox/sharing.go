package dropbox

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// expiresFormat is the timestamp format the sharing endpoint accepts.
const expiresFormat = "2006-01-02T15:04:05Z"

// SharedLinkSettings configure a password-gated public link. The audience is
// always public; a zero Expires means the link never expires (the expiration
// is advisory metadata attached server-side either way).
type SharedLinkSettings struct {
	RequirePassword bool
	LinkPassword    string
	AllowDownload   bool
	Expires         time.Time
}

type sharedLinkSettingsArg struct {
	RequirePassword bool   `json:"require_password"`
	LinkPassword    string `json:"link_password,omitempty"`
	AllowDownload   bool   `json:"allow_download"`
	Expires         string `json:"expires,omitempty"`
	Audience        string `json:"audience"`
}

type createSharedLinkArg struct {
	Path     string                `json:"path"`
	Settings sharedLinkSettingsArg `json:"settings"`
}

type sharedLinkResponse struct {
	URL string `json:"url"`
}

// CreateSharedLink mints a shared link for an already-uploaded object. The
// caller must guarantee the upload has fully committed first — the remote
// store indexes a just-finished upload asynchronously, and a link requested
// too early fails with a not-found even though the finish call succeeded.
// The transfer orchestrator owns that settling concern; this call makes
// exactly one attempt.
//
// The returned URL opens an in-browser preview by default; see
// ForceDownloadURL for the download-only rewrite.
func (c *Client) CreateSharedLink(ctx context.Context, path string, settings SharedLinkSettings) (string, error) {
	arg := createSharedLinkArg{
		Path: path,
		Settings: sharedLinkSettingsArg{
			RequirePassword: settings.RequirePassword,
			LinkPassword:    settings.LinkPassword,
			AllowDownload:   settings.AllowDownload,
			Audience:        "public",
		},
	}

	if !settings.Expires.IsZero() {
		arg.Settings.Expires = settings.Expires.UTC().Format(expiresFormat)
	}

	c.logger.Info("creating shared link",
		slog.String("path", path),
		slog.Bool("password_protected", settings.RequirePassword),
		slog.String("expires", arg.Settings.Expires),
	)

	var link sharedLinkResponse
	if err := c.rpc(ctx, "/2/sharing/create_shared_link_with_settings", arg, &link); err != nil {
		return "", err
	}

	c.logger.Info("shared link created",
		slog.String("url", link.URL),
	)

	return link.URL, nil
}

// ForceDownloadURL rewrites a shared link's dl query parameter from 0 to 1
// so the browser downloads the file instead of opening a preview. Every
// other query parameter, their order, and the rest of the URL are preserved
// byte for byte. Links without a dl parameter, or already carrying dl=1,
// are returned unchanged — the rewrite is idempotent.
func ForceDownloadURL(link string) string {
	base, query, found := strings.Cut(link, "?")
	if !found {
		return link
	}

	params := strings.Split(query, "&")
	for i, p := range params {
		if p == "dl=0" {
			params[i] = "dl=1"
		}
	}

	return base + "?" + strings.Join(params, "&")
}
