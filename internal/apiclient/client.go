// Package apiclient talks to the attendance backend over JSON.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const maxErrorBody = 4 << 10

// TokenSource supplies the bearer token of the current session. An empty
// token is not an error; the request then goes out unauthenticated.
type TokenSource interface {
	BearerToken(ctx context.Context) string
}

// Observer is notified once per upstream call; status is 0 on transport
// failure.
type Observer interface {
	ObserveUpstream(method string, status int)
}

type Options struct {
	Auth bool
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	observer   Observer
	logger     *logrus.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithObserver(o Observer) ClientOption {
	return func(c *Client) { c.observer = o }
}

// NewClient builds a client for baseURL. A zero timeout means requests are
// never cut short by the client.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *logrus.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Get(ctx context.Context, endpoint string, opts Options, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, opts, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, body any, opts Options, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, body, opts, out)
}

func (c *Client) Put(ctx context.Context, endpoint string, body any, opts Options, out any) error {
	return c.do(ctx, http.MethodPut, endpoint, body, opts, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string, opts Options, out any) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, opts, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, opts Options, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", "no-store")
	}
	if opts.Auth && c.tokens != nil {
		if token := c.tokens.BearerToken(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, 0)
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	c.observe(method, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   endpoint,
			"status": resp.StatusCode,
		}).Warn("Upstream request failed")
		return &StatusError{
			Method:     method,
			Path:       endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, endpoint, err)
	}
	return nil
}

func (c *Client) observe(method string, status int) {
	if c.observer != nil {
		c.observer.ObserveUpstream(method, status)
	}
}
