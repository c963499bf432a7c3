// Package apiclient talks to the cinema REST API that owns seat holds,
// pricing, orders and ZaloPay settlement.  The POS service never computes
// any of those itself; it forwards the cashier's selections and stores
// whatever snapshot the API returns.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	// ErrNotFound is returned for HTTP 404 responses.
	ErrNotFound = errors.New("cinema api: not found")
	// ErrSeatUnavailable is returned for HTTP 409 responses, which the API
	// uses when a seat was taken by another terminal in the meantime.
	ErrSeatUnavailable = errors.New("cinema api: seat no longer available")
	// ErrUnauthorized is returned for HTTP 401 and 403 responses.
	ErrUnauthorized = errors.New("cinema api: unauthorized")
)

// APIError carries a non-2xx response.  It unwraps to one of the sentinel
// errors above when the status code has a dedicated meaning.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("cinema api %s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrSeatUnavailable
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}
	return nil
}

// envelope is the response wrapper used by every endpoint of the cinema API.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client is an HTTP client for the cinema API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// New creates a client with an instrumented transport.  token is the
// service token used when the request context carries no staff token.
func New(baseURL, token string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, token, &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

// NewWithHTTPClient creates a client around an existing *http.Client.
func NewWithHTTPClient(baseURL, token string, hc *http.Client) *Client {
	return &Client{httpClient: hc, baseURL: baseURL, token: token}
}

type tokenKey struct{}

// WithToken attaches the cashier's bearer token to ctx so that calls made
// on their behalf are authorised as them.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func (c *Client) bearer(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey{}).(string); ok && v != "" {
		return v
	}
	return c.token
}

// do sends one request and decodes the envelope's data into out (when out
// is non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.bearer(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", method, path, err)
	}
	return nil
}
