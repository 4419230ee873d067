package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trashdash/trashdash-go/internal/credentials"
	"github.com/trashdash/trashdash-go/internal/models"
)

// DefaultTimeout matches the timeout every TrashDash app configures.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the backend. Message carries the
// backend-provided error text when the body had one, otherwise it is empty
// and callers fall back to their own message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed (status %d)", e.Status)
}

// Client dispatches authenticated requests against the TrashDash backend.
// Every request picks up the app's bearer token from the token store, and
// any 401 response tears the persisted token down and fires the
// unauthorized hook, regardless of which operation issued the request.
type Client struct {
	baseURL        string
	tokenKey       string
	tokens         credentials.TokenStore
	endpoints      Endpoints
	httpClient     *http.Client
	onUnauthorized func()
	log            zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (tests use httptest clients).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithEndpoints overrides the default endpoint paths.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) { c.endpoints = e }
}

// WithUnauthorizedHook sets the callback fired after a 401 response has
// cleared the persisted token. The hook is the app's "redirect to login".
func WithUnauthorizedHook(hook func()) Option {
	return func(c *Client) { c.onUnauthorized = hook }
}

// WithLogger sets the request/response diagnostics logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates an API client for one app. tokenKey scopes the persisted
// bearer token to that app.
func New(baseURL, tokenKey string, tokens credentials.TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokenKey:  tokenKey,
		tokens:    tokens,
		endpoints: DefaultEndpoints(),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoints returns the endpoint layout the client dispatches against.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// SetUnauthorizedHook installs the 401 callback after construction. The
// session store and the client reference each other, so one of the two
// has to be wired late.
func (c *Client) SetUnauthorizedHook(hook func()) {
	c.onUnauthorized = hook
}

// do sends one request and returns the raw response body. Request bodies
// are JSON-encoded; the bearer token is attached when the store has one.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token, err := c.tokens.LoadToken(c.tokenKey); err == nil && token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	} else if err != nil && !errors.Is(err, credentials.ErrNoToken) {
		c.log.Warn().Err(err).Msg("token store read failed, sending request unauthenticated")
	}

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Msg("api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug().
		Str("request_id", requestID).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("api response")

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: extractErrorMessage(respBody),
		}
	}

	return respBody, nil
}

// handleUnauthorized implements the global 401 policy: drop the persisted
// token, then hand control to the app's redirect hook.
func (c *Client) handleUnauthorized() {
	if err := c.tokens.DeleteToken(c.tokenKey); err != nil {
		c.log.Warn().Err(err).Msg("failed to clear token after 401")
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// extractErrorMessage pulls the backend error text out of a failure body.
// The backend is inconsistent here too: some endpoints use "error", some
// use "message".
func extractErrorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

// Login calls the login endpoint and returns the raw body for normalization.
func (c *Client) Login(ctx context.Context, creds models.LoginCredentials) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, c.endpoints.Login, creds)
}

// Register calls the registration endpoint.
func (c *Client) Register(ctx context.Context, data models.RegisterData) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, c.endpoints.Register, data)
}

// Logout notifies the backend that the session is ending. The response
// body is ignored; callers clear local state whether or not this succeeds.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, c.endpoints.Logout, nil)
	return err
}

// Profile fetches the current user using the stored token.
func (c *Client) Profile(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, c.endpoints.Profile, nil)
}

// Refresh exchanges a refresh token for a fresh token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (json.RawMessage, error) {
	body := map[string]string{"refreshToken": refreshToken}
	return c.do(ctx, http.MethodPost, c.endpoints.Refresh, body)
}
