package dropbox

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"
)

// Dropbox OAuth2 endpoints. The authorize URL is visited by the user in a
// browser; the token URL serves both the code exchange and refresh grants.
const (
	authURL  = "https://www.dropbox.com/oauth2/authorize"
	tokenURL = "https://api.dropboxapi.com/oauth2/token"
)

// ErrCodeRejected is returned when the provider rejects the pasted
// authorization code — most commonly because it was mis-copied from the
// browser. The CLI maps it (like every top-level failure) to exit code 42.
var ErrCodeRejected = errors.New("dropbox: authorization code rejected")

// oauthConfig builds the oauth2.Config for a Dropbox public client (PKCE,
// no client secret, no redirect URI — the code is displayed for pasting).
func oauthConfig(appKey string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: appKey,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}
}

// Login performs the interactive PKCE login handshake:
//  1. Builds the authorization URL with a PKCE S256 challenge and
//     token_access_type=offline so a refresh token is granted
//  2. Prints the URL to out for the user to visit out-of-band
//  3. Blocks on a single line from in — the pasted authorization code.
//     This is the one intentionally synchronous human-in-the-loop step.
//  4. Exchanges the code (with the PKCE verifier) for tokens
//
// A rejected code yields ErrCodeRejected. Callers must not invoke Login when
// a cached credential exists unless the user explicitly requested re-auth.
func Login(ctx context.Context, appKey string, in io.Reader, out io.Writer, logger *slog.Logger) (*Credentials, error) {
	return login(ctx, oauthConfig(appKey), in, out, logger)
}

// login implements the flow. Accepts a pre-built oauth2.Config so tests can
// inject a mock token endpoint.
func login(ctx context.Context, cfg *oauth2.Config, in io.Reader, out io.Writer, logger *slog.Logger) (*Credentials, error) {
	logger.Info("starting PKCE auth flow")

	verifier := oauth2.GenerateVerifier()

	url := cfg.AuthCodeURL("",
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("token_access_type", "offline"),
	)

	fmt.Fprintf(out, "Login here:\n%s\n\n", url)
	fmt.Fprint(out, "Paste access code: ")

	code, err := readAuthCode(in)
	if err != nil {
		return nil, err
	}

	logger.Debug("exchanging authorization code for tokens")

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		logger.Error("token exchange failed",
			slog.String("error", err.Error()),
		)

		return nil, fmt.Errorf("%w (did you paste the wrong thing from the web site?): %v", ErrCodeRejected, err)
	}

	creds := &Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		AccountID:    extraString(tok, "account_id"),
		Scope:        extraString(tok, "scope"),
		Expiry:       tok.Expiry,
	}

	logger.Info("login successful",
		slog.String("account_id", creds.AccountID),
		slog.Time("access_token_expiry", creds.Expiry),
	)

	return creds, nil
}

// readAuthCode reads the single pasted line, trimming surrounding
// whitespace. An empty line is rejected before any exchange attempt.
func readAuthCode(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("dropbox: reading access code: %w", err)
	}

	code := strings.TrimSpace(line)
	if code == "" {
		return "", fmt.Errorf("%w: empty access code", ErrCodeRejected)
	}

	return code, nil
}

// extraString pulls a string field from the token's extra payload.
func extraString(tok *oauth2.Token, key string) string {
	s, _ := tok.Extra(key).(string)
	return s
}

// TokenSourceFromRefresh returns a TokenSource that derives short-lived
// access tokens from the persisted refresh token on demand, caching each
// one until it expires. The refresh token itself is long-lived and is never
// rewritten outside a fresh interactive login.
//
// ctx must outlive the TokenSource — it is bound to every refresh request.
func TokenSourceFromRefresh(ctx context.Context, appKey, refreshToken string, logger *slog.Logger) TokenSource {
	src := oauthConfig(appKey).TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	return &tokenBridge{src: src, logger: logger}
}

// tokenBridge adapts oauth2.TokenSource to dropbox.TokenSource.
// Logs token acquisition so refresh activity is visible.
type tokenBridge struct {
	src    oauth2.TokenSource
	logger *slog.Logger
}

func (b *tokenBridge) Token() (string, error) {
	t, err := b.src.Token()
	if err != nil {
		b.logger.Warn("token acquisition failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("dropbox: obtaining access token: %w", err)
	}

	b.logger.Debug("access token acquired",
		slog.Time("expiry", t.Expiry),
	)

	return t.AccessToken, nil
}
