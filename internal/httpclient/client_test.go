// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cortexbuild/tenancy-service/internal/logging"
)

func newTestClient(cfg Config) *Client {
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = time.Millisecond
	}

	return NewClient(cfg, logging.NewNoopLogger())
}

func TestDoRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(Config{MaxRetries: 3})

	resp, err := client.Do(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	defer resp.Body.Close()

	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}

	stats := client.Stats()
	if stats.Attempts != 3 || stats.Retries != 2 || stats.Successes != 1 || stats.Failures != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestDoExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(Config{MaxRetries: 2})

	_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
	if err == nil {
		t.Fatal("expected an error")
	}

	if got := calls.Load(); got != 3 {
		t.Fatalf("expected initial attempt plus 2 retries, got %d attempts", got)
	}

	clientErr := asClientError(t, err)
	if clientErr.Kind != KindServerError || clientErr.StatusCode != http.StatusBadGateway || !clientErr.Retryable {
		t.Fatalf("unexpected error classification: %+v", clientErr)
	}
}

func TestDoNeverRetriesPost(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(Config{MaxRetries: 3})

	_, err := client.Do(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    server.URL,
		Body:   []byte(`{"charge":100}`),
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("POST must not be replayed, got %d attempts", got)
	}
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(Config{MaxRetries: 3})

	_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
	if err == nil {
		t.Fatal("expected an error")
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("4xx must fail fast, got %d attempts", got)
	}

	clientErr := asClientError(t, err)
	if clientErr.Kind != KindForbidden || clientErr.Retryable {
		t.Fatalf("unexpected error classification: %+v", clientErr)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		kind      Kind
		retryable bool
	}{
		{http.StatusRequestTimeout, KindTimeout, true},
		{http.StatusUnauthorized, KindUnauthorized, false},
		{http.StatusForbidden, KindForbidden, false},
		{http.StatusNotFound, KindNotFound, false},
		{http.StatusConflict, KindHTTP, false},
		{http.StatusTooManyRequests, KindRateLimited, true},
		{http.StatusInternalServerError, KindServerError, true},
		{http.StatusBadGateway, KindServerError, true},
		{http.StatusServiceUnavailable, KindServiceUnavailable, true},
		{http.StatusGatewayTimeout, KindTimeout, true},
	}

	req := &Request{Method: http.MethodGet, URL: "http://upstream.test/v1/ping"}

	for _, test := range tests {
		err := classifyStatus(req, test.status)

		if err.Kind != test.kind {
			t.Errorf("status %d: expected kind %q, got %q", test.status, test.kind, err.Kind)
		}

		if err.Retryable != test.retryable {
			t.Errorf("status %d: expected retryable=%v", test.status, test.retryable)
		}

		if err.StatusCode != test.status {
			t.Errorf("status %d: status code not carried", test.status)
		}

		if err.Timestamp.IsZero() {
			t.Errorf("status %d: timestamp not set", test.status)
		}
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	client := newTestClient(Config{BaseDelay: 100 * time.Millisecond})

	previousFloor := time.Duration(0)
	for attempt := 0; attempt < 10; attempt++ {
		floor := client.baseDelay << uint(attempt)
		if floor > maxDelay || floor <= 0 {
			floor = maxDelay
		}

		delay := client.backoff(attempt)

		if delay > maxDelay {
			t.Fatalf("attempt %d: delay %s exceeds cap %s", attempt, delay, maxDelay)
		}

		if delay < floor && floor < maxDelay {
			t.Fatalf("attempt %d: delay %s below exponential floor %s", attempt, delay, floor)
		}

		if floor < previousFloor {
			t.Fatalf("attempt %d: floor regressed", attempt)
		}

		previousFloor = floor
	}
}

func TestDoAbortsOnCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(Config{MaxRetries: 3, BaseDelay: time.Hour})

	_, err := client.Do(ctx, &Request{Method: http.MethodGet, URL: server.URL})
	if err == nil {
		t.Fatal("expected an error")
	}

	clientErr := asClientError(t, err)
	if clientErr.Retryable {
		t.Fatal("a cancelled context must not be retryable")
	}
}

func TestResetStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(Config{})

	resp, err := client.Do(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	resp.Body.Close()

	if client.Stats().Attempts != 1 {
		t.Fatalf("expected one recorded attempt, got %+v", client.Stats())
	}

	client.ResetStats()

	if stats := client.Stats(); stats != (Stats{}) {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
}

func asClientError(t *testing.T, err error) *Error {
	t.Helper()

	clientErr := new(Error)
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected *httpclient.Error, got %T", err)
	}

	return clientErr
}
