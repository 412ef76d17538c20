// Package backend is the typed client for the remote POS backend, the system of record
// for products, discounts, customers, stock and transactions.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
)

const (
	defaultTimeout           = 10 * time.Second
	errorBodyReadLimit int64 = 4096
	apiKeyHeader             = "X-API-Key"
)

var errBaseURLRequired = errors.New("backend base url is required")

type tokenKey struct{}

// WithToken returns a context carrying the backend bearer token for outgoing calls.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the backend bearer token stored in ctx.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// Client talks to the backend REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithAPIKey sends a static API key with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// NewClient builds the backend client for the given base URL, e.g. http://backend:8000/api.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return client, nil
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta *PageMeta       `json:"meta,omitempty"`
}

// do issues the request and decodes the "data" member of the response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) (*PageMeta, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backend client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal backend request")
		}
		reader = bytes.NewReader(payload)
	}

	target := c.buildURL(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}
	if token, ok := TokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backend request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, statusError(resp.StatusCode, msg)
	}

	if out == nil {
		return nil, nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode backend response")
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backend response has no data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode backend data")
	}
	return env.Meta, nil
}

// statusError maps a non-2xx backend response onto the terminal error codes.
func statusError(status int, body []byte) error {
	upstream := upstreamMessage(body)
	cause := fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(body)))

	switch status {
	case http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, firstNonEmpty(upstream, "resource not found"))
	case http.StatusUnauthorized:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, firstNonEmpty(upstream, "backend rejected credentials"))
	case http.StatusForbidden:
		return pkgerrors.Wrap(pkgerrors.CodeForbidden, cause, firstNonEmpty(upstream, "backend denied access"))
	case http.StatusConflict, http.StatusUnprocessableEntity, http.StatusBadRequest:
		return pkgerrors.Wrap(pkgerrors.CodeConflict, cause, firstNonEmpty(upstream, "backend rejected request"))
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "backend request failed")
	}
}

// upstreamMessage pulls a human message out of the common error body shapes:
// {"message": "..."}, {"error": "..."} and {"error": {"message": "..."}}.
func upstreamMessage(body []byte) string {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(body, &shape); err != nil {
		return ""
	}
	if raw, ok := shape["message"]; ok {
		var msg string
		if json.Unmarshal(raw, &msg) == nil {
			return strings.TrimSpace(msg)
		}
	}
	if raw, ok := shape["error"]; ok {
		var msg string
		if json.Unmarshal(raw, &msg) == nil {
			return strings.TrimSpace(msg)
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &nested) == nil {
			return strings.TrimSpace(nested.Message)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}
