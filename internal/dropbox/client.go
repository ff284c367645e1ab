package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// APIBaseURL serves RPC-style endpoints (JSON request and response).
	APIBaseURL = "https://api.dropboxapi.com"

	// ContentBaseURL serves content endpoints (octet-stream body, JSON
	// arguments in the Dropbox-API-Arg header).
	ContentBaseURL = "https://content.dropboxapi.com"

	// RequestTimeout bounds every individual API call. Uploading a 4 MiB
	// chunk over a slow link can legitimately take minutes.
	RequestTimeout = 900 * time.Second

	userAgent = "dropship/0.1"

	// requestIDHeader carries the Dropbox-assigned request ID on every
	// response; it is surfaced in APIError for support tickets.
	requestIDHeader = "X-Dropbox-Request-Id"
)

// TokenSource provides OAuth2 bearer tokens. Defined at the consumer per Go
// convention "accept interfaces, return structs"; auth.go provides the real
// refresh-token-backed implementation.
type TokenSource interface {
	Token() (string, error)
}

// Client is an HTTP client for the Dropbox API v2. It handles request
// construction, authentication, path-root scoping, and error classification.
// Failed calls are not retried: any API error aborts the operation and the
// caller starts over (chunked uploads start a fresh session).
type Client struct {
	apiBase     string
	contentBase string
	httpClient  *http.Client
	token       TokenSource
	pathRoot    string // Dropbox-API-Path-Root header value; empty = user root
	logger      *slog.Logger
}

// NewClient creates a Dropbox API client. apiBase and contentBase are
// typically APIBaseURL and ContentBaseURL; tests point them at a fake server.
func NewClient(apiBase, contentBase string, httpClient *http.Client, token TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: RequestTimeout}
	}

	return &Client{
		apiBase:     apiBase,
		contentBase: contentBase,
		httpClient:  httpClient,
		token:       token,
		logger:      logger,
	}
}

// WithPathRoot returns a copy of the client whose requests resolve paths
// under the given namespace (the team root). All subsequent calls on the
// returned client carry the Dropbox-API-Path-Root header.
func (c *Client) WithPathRoot(namespaceID string) *Client {
	scoped := *c
	scoped.pathRoot = fmt.Sprintf(`{".tag": "root", "root": %q}`, namespaceID)

	return &scoped
}

// rpc executes an RPC-style endpoint: JSON request body, JSON response.
// args is always marshaled, so a nil args sends the literal "null" body some
// endpoints (users/get_current_account) require. result may be nil when the
// response body carries nothing of interest.
func (c *Client) rpc(ctx context.Context, path string, args, result any) error {
	body, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("dropbox: marshaling %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dropbox: creating %s request: %w", path, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.send(req, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResult(resp.Body, path, result)
}

// content executes a content-upload endpoint: JSON arguments travel in the
// Dropbox-API-Arg header, the request body carries raw bytes. length is set
// as Content-Length so chunk sizes reach the wire exactly.
func (c *Client) content(ctx context.Context, path string, args any, body io.Reader, length int64, result any) error {
	argJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("dropbox: marshaling %s arg: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentBase+path, body)
	if err != nil {
		return fmt.Errorf("dropbox: creating %s request: %w", path, err)
	}

	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", string(argJSON))
	req.ContentLength = length

	resp, err := c.send(req, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResult(resp.Body, path, result)
}

// download executes a content-download endpoint and returns the response
// body for streaming. The caller must close it.
func (c *Client) download(ctx context.Context, path string, args any) (io.ReadCloser, error) {
	argJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("dropbox: marshaling %s arg: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentBase+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("dropbox: creating %s request: %w", path, err)
	}

	req.Header.Set("Dropbox-API-Arg", string(argJSON))

	resp, err := c.send(req, path)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// send authorizes and executes a prepared request, converting any non-2xx
// response into a classified APIError. Errors are logged before propagation;
// there is no automatic retry.
func (c *Client) send(req *http.Request, path string) (*http.Response, error) {
	tok, err := c.token.Token()
	if err != nil {
		return nil, fmt.Errorf("dropbox: obtaining token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", userAgent)

	if c.pathRoot != "" {
		req.Header.Set("Dropbox-API-Path-Root", c.pathRoot)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request failed",
			slog.String("endpoint", path),
			slog.String("error", err.Error()),
		)

		return nil, fmt.Errorf("dropbox: %s request failed: %w", path, err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("endpoint", path),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	apiErr := c.readAPIError(resp)
	resp.Body.Close()

	c.logger.Error("request rejected",
		slog.String("endpoint", path),
		slog.Int("status", apiErr.StatusCode),
		slog.String("request_id", apiErr.RequestID),
		slog.String("summary", apiErr.Summary),
	)

	return nil, apiErr
}

// readAPIError builds an APIError from an error response. Endpoint errors
// carry a JSON body with error_summary; transport-level rejections (401,
// 429, 5xx) may be plain text, in which case the raw body is the summary.
func (c *Client) readAPIError(resp *http.Response) *APIError {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		body = []byte("(failed to read response body)")
	}

	summary := string(bytes.TrimSpace(body))

	var parsed struct {
		ErrorSummary string `json:"error_summary"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.ErrorSummary != "" {
		summary = parsed.ErrorSummary
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get(requestIDHeader),
		Summary:    summary,
		Err:        classify(resp.StatusCode, summary),
	}
}

// decodeResult decodes a JSON response body into result, draining the body
// when the caller does not want it so the connection can be reused.
func decodeResult(body io.Reader, path string, result any) error {
	if result == nil {
		if _, err := io.Copy(io.Discard, body); err != nil {
			return fmt.Errorf("dropbox: draining %s response: %w", path, err)
		}

		return nil
	}

	if err := json.NewDecoder(body).Decode(result); err != nil {
		return fmt.Errorf("dropbox: decoding %s response: %w", path, err)
	}

	return nil
}
