package dropbox

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newAuthServer fakes the OAuth2 token endpoint. exchange is called with the
// form values of each token request; returning false rejects the code.
func newAuthServer(t *testing.T, exchange func(form map[string]string) bool) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}

		if !exchange(form) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "invalid_grant", "error_description": "code doesn't exist or has expired"}`))

			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "sl.test-access",
			"token_type": "bearer",
			"expires_in": 14400,
			"refresh_token": "rt-test-refresh",
			"scope": "account_info.read files.content.write sharing.write",
			"account_id": "dbid:test-account"
		}`))
	}))
}

func testOauthConfig(tokenEndpoint string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: "test-app-key",
		Endpoint: oauth2.Endpoint{
			AuthURL:  tokenEndpoint + "/authorize",
			TokenURL: tokenEndpoint + "/token",
		},
	}
}

func TestLogin_Success(t *testing.T) {
	var gotForm map[string]string

	srv := newAuthServer(t, func(form map[string]string) bool {
		gotForm = form
		return true
	})
	defer srv.Close()

	var out bytes.Buffer

	creds, err := login(context.Background(), testOauthConfig(srv.URL),
		strings.NewReader("pasted-code\n"), &out, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "rt-test-refresh", creds.RefreshToken)
	assert.Equal(t, "sl.test-access", creds.AccessToken)
	assert.Equal(t, "dbid:test-account", creds.AccountID)
	assert.Equal(t, "account_info.read files.content.write sharing.write", creds.Scope)
	assert.False(t, creds.Expiry.IsZero())

	// PKCE exchange: the pasted code plus the verifier, no client secret.
	assert.Equal(t, "pasted-code", gotForm["code"])
	assert.Equal(t, "authorization_code", gotForm["grant_type"])
	assert.NotEmpty(t, gotForm["code_verifier"])
	assert.Empty(t, gotForm["client_secret"])

	// The displayed URL carries the PKCE challenge and offline access.
	prompt := out.String()
	assert.Contains(t, prompt, "Login here:")
	assert.Contains(t, prompt, "code_challenge=")
	assert.Contains(t, prompt, "code_challenge_method=S256")
	assert.Contains(t, prompt, "token_access_type=offline")
	assert.Contains(t, prompt, "Paste access code: ")
}

func TestLogin_TrimsPastedWhitespace(t *testing.T) {
	var gotCode string

	srv := newAuthServer(t, func(form map[string]string) bool {
		gotCode = form["code"]
		return true
	})
	defer srv.Close()

	_, err := login(context.Background(), testOauthConfig(srv.URL),
		strings.NewReader("  padded-code  \n"), &bytes.Buffer{}, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "padded-code", gotCode)
}

func TestLogin_AcceptsCodeWithoutTrailingNewline(t *testing.T) {
	srv := newAuthServer(t, func(map[string]string) bool { return true })
	defer srv.Close()

	_, err := login(context.Background(), testOauthConfig(srv.URL),
		strings.NewReader("no-newline-code"), &bytes.Buffer{}, slog.Default())
	require.NoError(t, err)
}

func TestLogin_RejectedCode(t *testing.T) {
	srv := newAuthServer(t, func(map[string]string) bool { return false })
	defer srv.Close()

	_, err := login(context.Background(), testOauthConfig(srv.URL),
		strings.NewReader("wrong-thing\n"), &bytes.Buffer{}, slog.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCodeRejected)
}

func TestLogin_EmptyCode(t *testing.T) {
	srv := newAuthServer(t, func(map[string]string) bool {
		t.Error("exchange must not be attempted for an empty code")
		return false
	})
	defer srv.Close()

	_, err := login(context.Background(), testOauthConfig(srv.URL),
		strings.NewReader("\n"), &bytes.Buffer{}, slog.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCodeRejected)
}

func TestTokenSourceFromRefresh_DerivesAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt-saved", r.PostForm.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "sl.fresh", "token_type": "bearer", "expires_in": 14400}`))
	}))
	defer srv.Close()

	src := testOauthConfig(srv.URL).TokenSource(context.Background(), &oauth2.Token{RefreshToken: "rt-saved"})
	bridge := &tokenBridge{src: src, logger: slog.Default()}

	tok, err := bridge.Token()
	require.NoError(t, err)
	assert.Equal(t, "sl.fresh", tok)

	// A second call reuses the cached access token instead of refreshing.
	tok, err = bridge.Token()
	require.NoError(t, err)
	assert.Equal(t, "sl.fresh", tok)
}
