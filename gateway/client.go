// Package gateway is the HTTP client for the remote session gateway: the
// optimizer backend's REST API for creating, renaming, listing, and deleting
// sessions, plus the analyse endpoint that runs the pipeline itself.
//
// Every call is recoverable at the call site. The local persistence layer is
// a cache in front of this gateway; a gateway failure must never take the
// hosting page down.
package gateway

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

	"github.com/opticode/core/core/pipeline"
	"github.com/opticode/core/session"
)

// Config holds gateway client parameters.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:5000". Empty
	// disables the gateway (browser-only variant).
	BaseURL string `json:"base_url,omitempty"`
	// TimeoutSeconds bounds each request; 0 means the default (30s).
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// DefaultConfig returns the default gateway configuration (disabled).
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.TimeoutSeconds > 0 {
		c.TimeoutSeconds = source.TimeoutSeconds
	}
}

// APIError is a non-success response from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway: %s (status %d)", e.Message, e.StatusCode)
}

// Client issues JSON requests against the gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client from configuration. Returns nil when the
// gateway is disabled (empty BaseURL).
func NewClient(cfg *Config) *Client {
	if cfg == nil || cfg.BaseURL == "" {
		return nil
	}

	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateSession stores rec remotely and returns the gateway-assigned ID.
// The record's Email must be set; the gateway scopes sessions by owner.
func (c *Client) CreateSession(ctx context.Context, rec session.Record) (string, error) {
	if rec.Email == "" {
		return "", fmt.Errorf("create session: email is required")
	}

	created, err := do[createResponse](ctx, c, http.MethodPost, "/api/sessions", rec, http.StatusCreated)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// ListSessions returns the owner's sessions, newest first.
func (c *Client) ListSessions(ctx context.Context, email string) ([]session.Record, error) {
	path := "/api/sessions/" + url.PathEscape(email)
	records, err := do[[]session.Record](ctx, c, http.MethodGet, path, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return *records, nil
}

// RenameSession sets the session's name remotely.
func (c *Client) RenameSession(ctx context.Context, id, name string) error {
	path := "/api/sessions/item/" + url.PathEscape(id)
	body := map[string]string{"name": name}
	_, err := do[messageResponse](ctx, c, http.MethodPatch, path, body, http.StatusOK)
	return err
}

// DeleteSession removes the session remotely. An already-deleted session
// (404) counts as success.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	path := "/api/sessions/delete/" + url.PathEscape(id)
	_, err := do[messageResponse](ctx, c, http.MethodDelete, path, nil, http.StatusOK)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

// Analyse runs the optimization pipeline on code at the given level and
// returns the raw result document.
func (c *Client) Analyse(ctx context.Context, code string, level pipeline.Level) (*pipeline.Result, error) {
	body := map[string]string{
		"code":               code,
		"optimization_level": string(level),
	}
	return do[pipeline.Result](ctx, c, http.MethodPost, "/api/analyse", body, http.StatusOK)
}

// Health checks gateway liveness.
func (c *Client) Health(ctx context.Context) error {
	_, err := do[statusResponse](ctx, c, http.MethodGet, "/api/health", nil, http.StatusOK)
	return err
}

type createResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// do issues one JSON request and decodes the expected-status response body
// into T. Any other status is returned as an *APIError carrying the
// gateway's error message when one is present.
func do[T any](ctx context.Context, c *Client, method, path string, body any, wantStatus int) (*T, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: marshal body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode != wantStatus {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var remote errorResponse
		if json.Unmarshal(payload, &remote) == nil {
			apiErr.Message = remote.Error
		}
		return nil, apiErr
	}

	result := new(T)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, result); err != nil {
			return nil, fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return result, nil
}
