// ABOUTME: HTTP client for the SecureVault REST API
// ABOUTME: Injects the stored session token and normalises transport and HTTP errors

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/buggiebug/Secure-Vault/internal/tokenstore"
)

// DefaultTimeout bounds every request unless WithTimeout or WithHTTPClient says otherwise.
const DefaultTimeout = 20 * time.Second

// LegacyTokenHeader carries the raw token next to the bearer header.
const LegacyTokenHeader = "usertoken"

// Client is the API client for the SecureVault backend
type Client struct {
	baseURL      string
	httpClient   *http.Client
	store        tokenstore.Store
	legacyHeader bool
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its transport is still
// wrapped with request logging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.httpClient = &cp
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLegacyTokenHeader toggles the secondary usertoken header.
func WithLegacyTokenHeader(on bool) Option {
	return func(c *Client) { c.legacyHeader = on }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new API client with the given base URL. store may be nil, in
// which case every request goes out unauthenticated.
func New(baseURL string, store tokenstore.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		store:        store,
		legacyHeader: true,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Transport = newLoggingTransport(c.httpClient.Transport, c.logger)
	return c
}

// BaseURL returns the backend URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope is the response wrapper every endpoint uses.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends one request and returns the decoded envelope together with the raw
// body for endpoints whose payload is not under "data".
func (c *Client) do(ctx context.Context, method, path string, in any) (*envelope, []byte, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.attachToken(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, c.handleRequestError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, c.handleErrorResponse(resp.StatusCode, raw)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, nil, errInvalidResponse(err)
		}
	}
	return &env, raw, nil
}

// attachToken adds both auth headers when a token is stored. A failing store
// read is logged and the request proceeds unauthenticated.
func (c *Client) attachToken(ctx context.Context, req *http.Request) {
	if c.store == nil {
		return
	}
	token, err := c.store.GetItem(ctx, tokenstore.TokenKey)
	if err != nil {
		c.logger.Warn("reading session token failed", "error", err)
		return
	}
	if token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if c.legacyHeader {
		req.Header.Set(LegacyTokenHeader, token)
	}
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return ErrCanceled
	}
	if ctx.Err() == context.DeadlineExceeded || isTimeout(err) {
		return ErrTimedOut
	}
	return &TransportError{URL: c.baseURL, Err: err}
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(status int, raw []byte) error {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request failed with status %d", status)
	}
	return apiErr
}

func decodeData[T any](env *envelope, out *T) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errInvalidResponse(err)
	}
	return nil
}

func errInvalidResponse(err error) error {
	return fmt.Errorf("invalid response from backend: %w", err)
}
