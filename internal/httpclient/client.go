// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package httpclient wraps outbound HTTP calls with bounded retries,
// exponential backoff and error classification. Retries only run for
// idempotent methods and transient statuses; everything else fails fast
// with a typed error the caller can inspect.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cortexbuild/tenancy-service/internal/logging"
)

const (
	DefaultMaxRetries = 3
	DefaultTimeout    = 30 * time.Second
	DefaultBaseDelay  = 500 * time.Millisecond

	maxDelay  = 10 * time.Second
	maxJitter = time.Second
)

// retryableStatuses are the transient response codes worth another attempt.
var retryableStatuses = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// idempotentMethods are the only methods the client will replay. POST and
// PATCH are excluded: replaying them can duplicate the side effect.
var idempotentMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
}

type ClientInterface interface {
	Do(ctx context.Context, req *Request) (*http.Response, error)
	Stats() Stats
	ResetStats()
}

// Request describes a single outbound call. Body may be nil; it is
// buffered so retries can replay it.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte

	// MaxRetries and Timeout override the client defaults when > 0.
	MaxRetries int
	Timeout    time.Duration
}

type Config struct {
	MaxRetries int
	Timeout    time.Duration
	BaseDelay  time.Duration
}

var _ ClientInterface = (*Client)(nil)

// Client is safe for concurrent use. Counters are scoped to the instance,
// so two clients never pollute each other's stats.
type Client struct {
	http       *http.Client
	maxRetries int
	baseDelay  time.Duration
	logger     logging.LoggerInterface

	stats statsCounters
}

func NewClient(cfg Config, logger logging.LoggerInterface) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		logger:     logger,
	}
}

// Do performs the request, retrying idempotent methods on network errors
// and transient statuses. The returned response body is open; the caller
// owns closing it. On failure the returned error is always a *Error.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	retries := c.maxRetries
	if req.MaxRetries > 0 {
		retries = req.MaxRetries
	}

	if !idempotentMethods[req.Method] {
		retries = 0
	}

	var lastErr *Error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt - 1)
			c.logger.Debugf("retrying %s %s in %s, attempt %d of %d", req.Method, req.URL, delay, attempt, retries)
			c.stats.retried()

			select {
			case <-ctx.Done():
				return nil, classifyNetworkError(req, ctx.Err())
			case <-time.After(delay):
			}
		}

		resp, err := c.attempt(ctx, req)
		if err != nil {
			lastErr = classifyNetworkError(req, err)
			c.stats.failed()

			if !lastErr.Retryable {
				return nil, lastErr
			}

			continue
		}

		if resp.StatusCode < http.StatusBadRequest {
			c.stats.succeeded()
			return resp, nil
		}

		lastErr = classifyStatus(req, resp.StatusCode)
		c.stats.failed()
		drain(resp)

		if !lastErr.Retryable {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, req *Request) (*http.Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	client := c.http
	if req.Timeout > 0 {
		// http.Client.Timeout spans the full exchange including the
		// body read, which is what a per-request override should mean.
		clone := *c.http
		clone.Timeout = req.Timeout
		client = &clone
	}

	c.stats.attempted()

	return client.Do(httpReq)
}

// backoff returns base*2^attempt plus jitter, capped at ten seconds.
// Jitter is bounded by the delay itself and never exceeds a second.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.baseDelay << uint(attempt)
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}

	jitter := delay
	if jitter > maxJitter {
		jitter = maxJitter
	}

	delay += time.Duration(rand.Int63n(int64(jitter)))
	if delay > maxDelay {
		delay = maxDelay
	}

	return delay
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
