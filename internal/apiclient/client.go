// Package apiclient talks to the remote REST backend on behalf of a signed-in
// session.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const maxBodyBytes = 8 << 20

// Credentials are the bearer tokens of one session.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Empty reports whether no access token is held.
func (c Credentials) Empty() bool {
	return c.AccessToken == ""
}

// TokenStore holds the credentials of the caller. Implementations persist
// refreshed tokens so later requests reuse them.
type TokenStore interface {
	Credentials() Credentials
	SaveCredentials(ctx context.Context, creds Credentials) error
	ClearCredentials(ctx context.Context) error
}

// Observer receives call metrics.
type Observer interface {
	ObserveCall(method, resource string, status int, elapsed time.Duration)
	ObserveRefresh(outcome string)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithObserver reports call and refresh metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// Client is safe for concurrent use by many sessions.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *slog.Logger
	observer Observer

	refreshes singleflight.Group
}

// New constructs a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends an authenticated request and decodes the response into out. A 401
// triggers one token refresh and one retry; when that fails too the stored
// credentials are cleared and ErrSessionExpired is returned.
func (c *Client) Do(ctx context.Context, tokens TokenStore, method, path string, body, out any) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	creds := tokens.Credentials()
	if creds.Empty() {
		return ErrSessionExpired
	}

	err = c.send(ctx, method, path, creds.AccessToken, payload, out)
	if !isUnauthorized(err) {
		return err
	}

	fresh, err := c.refresh(ctx, creds)
	if err != nil {
		c.logger.Warn("token refresh failed", slog.String("path", path), slog.Any("error", err))
		return c.expire(ctx, tokens)
	}
	if err := tokens.SaveCredentials(ctx, fresh); err != nil {
		c.logger.Error("save refreshed credentials", slog.Any("error", err))
	}

	err = c.send(ctx, method, path, fresh.AccessToken, payload, out)
	if isUnauthorized(err) {
		return c.expire(ctx, tokens)
	}
	return err
}

func (c *Client) expire(ctx context.Context, tokens TokenStore) error {
	if err := tokens.ClearCredentials(ctx); err != nil {
		c.logger.Error("clear credentials", slog.Any("error", err))
	}
	return ErrSessionExpired
}

// refresh exchanges the refresh token once per token even when many requests
// hit a 401 together.
func (c *Client) refresh(ctx context.Context, creds Credentials) (Credentials, error) {
	if creds.RefreshToken == "" {
		c.observe("missing")
		return Credentials{}, errors.New("no refresh token")
	}
	v, err, shared := c.refreshes.Do(creds.RefreshToken, func() (any, error) {
		var fresh Credentials
		err := c.send(context.WithoutCancel(ctx), http.MethodPost, "/auth/refresh", "", mustJSON(map[string]string{
			"refresh_token": creds.RefreshToken,
		}), &fresh)
		return fresh, err
	})
	if err != nil {
		c.observe("failed")
		return Credentials{}, err
	}
	fresh := v.(Credentials)
	if fresh.AccessToken == "" {
		c.observe("failed")
		return Credentials{}, errors.New("refresh returned no access token")
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = creds.RefreshToken
	}
	if shared {
		c.observe("shared")
	} else {
		c.observe("ok")
	}
	return fresh, nil
}

func (c *Client) observe(outcome string) {
	if c.observer != nil {
		c.observer.ObserveRefresh(outcome)
	}
}

func (c *Client) send(ctx context.Context, method, path, token string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(method, path, 0, start)
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.record(method, path, resp.StatusCode, start)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("apiclient: read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := decodeEnvelope(data, out); err != nil {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) record(method, path string, status int, start time.Time) {
	elapsed := time.Since(start)
	c.logger.Debug("api call", slog.String("method", method), slog.String("path", path), slog.Int("status", status), slog.Duration("elapsed", elapsed))
	if c.observer != nil {
		c.observer.ObserveCall(method, resourceLabel(path), status, elapsed)
	}
}

// resourceLabel keeps metric cardinality bounded by dropping ids and queries.
func resourceLabel(path string) string {
	path, _, _ = strings.Cut(path, "?")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "auth" {
		return "/auth/" + parts[1]
	}
	return "/" + parts[0]
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode body: %w", err)
		}
		return data, nil
	}
}

func mustJSON(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}

// decodeEnvelope accepts both bare payloads and {"data": ...} envelopes.
func decodeEnvelope(data []byte, out any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
			return json.Unmarshal(envelope.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}
