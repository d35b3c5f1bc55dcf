// Package httpretry wraps an http.Client with a bounded exponential-backoff
// retry policy for transient transport failures.
package httpretry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const defaultMaxAttempts = 3

// Client retries GET and JSON POST requests a fixed number of times. A 4xx
// response is treated as permanent and returned without further attempts.
type Client struct {
	http        *http.Client
	maxAttempts int
	userAgent   string
	logger      *slog.Logger

	initialInterval time.Duration
}

// Option tweaks client construction.
type Option func(*Client)

// WithMaxAttempts bounds the total number of tries per request.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithInitialInterval overrides the first backoff delay; tests shrink it.
func WithInitialInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.initialInterval = d
		}
	}
}

// New builds a retrying client over the given http.Client.
func New(httpClient *http.Client, logger *slog.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	c := &Client{
		http:            httpClient,
		maxAttempts:     defaultMaxAttempts,
		logger:          logger,
		initialInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches a URL and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
}

// PostJSON posts a JSON-encoded payload and returns the response body.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

// do builds a fresh request per attempt and retries transient failures until
// the attempt budget is spent.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxInterval = 30 * time.Second

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		body, err := c.attempt(req)
		if err == nil {
			return body, nil
		}

		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Unwrap()
		}

		lastErr = err
		if attempt == c.maxAttempts {
			break
		}

		delay := bo.NextBackOff()
		if c.logger != nil {
			c.logger.Warn("request failed, retrying",
				"url", req.URL.String(), "attempt", attempt, "retry_in", delay, "error", err)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) attempt(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("server returned %s", resp.Status)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, backoff.Permanent(fmt.Errorf("request rejected: %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
