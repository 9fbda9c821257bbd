// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

type Kind string

const (
	KindNetwork            Kind = "network"
	KindTimeout            Kind = "timeout"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindRateLimited        Kind = "rate_limited"
	KindServerError        Kind = "server_error"
	KindServiceUnavailable Kind = "service_unavailable"
	KindHTTP               Kind = "http"
)

// Error carries enough context for a caller to branch on the failure
// class without parsing message strings. StatusCode is zero for
// failures that never produced a response.
type Error struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int
	Retryable  bool
	Timestamp  time.Time
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: %s (status %d)", e.Method, e.URL, e.Kind, e.StatusCode)
	}

	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func classifyNetworkError(req *Request, err error) *Error {
	kind := KindNetwork
	retryable := true

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		retryable = false
	}

	return &Error{
		Kind:      kind,
		Method:    req.Method,
		URL:       req.URL,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

func classifyStatus(req *Request, status int) *Error {
	var kind Kind
	switch {
	case status == http.StatusUnauthorized:
		kind = KindUnauthorized
	case status == http.StatusForbidden:
		kind = KindForbidden
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		kind = KindTimeout
	case status == http.StatusServiceUnavailable:
		kind = KindServiceUnavailable
	case status >= http.StatusInternalServerError:
		kind = KindServerError
	default:
		kind = KindHTTP
	}

	return &Error{
		Kind:       kind,
		Method:     req.Method,
		URL:        req.URL,
		StatusCode: status,
		Retryable:  retryableStatuses[status],
		Timestamp:  time.Now().UTC(),
	}
}
