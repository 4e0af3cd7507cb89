// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httpclient provides an http.RoundTripper that retries rate
// limited and transiently failing requests.
package httpclient

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"
)

// RetryStrategy classifies a response status.
type RetryStrategy int

const (
	// NoRetry returns the response as is.
	NoRetry RetryStrategy = iota

	// ConservativeRetry retries at most twice with a short linear delay.
	ConservativeRetry

	// SmartRetry honours Retry-After, otherwise backs off exponentially.
	SmartRetry
)

const conservativeMaxRetries = 2

// RetryStrategyFunc maps a status code to a strategy.
type RetryStrategyFunc func(statusCode int) RetryStrategy

// DefaultRetryStrategy retries 429/503 smartly and other gateway errors
// conservatively.
func DefaultRetryStrategy(statusCode int) RetryStrategy {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusServiceUnavailable:
		return SmartRetry
	case http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusGatewayTimeout:
		return ConservativeRetry
	default:
		return NoRetry
	}
}

// Transport is a retrying http.RoundTripper.
type Transport struct {
	base         http.RoundTripper
	maxRetries   int
	baseDelay    time.Duration
	maxDelay     time.Duration
	strategyFunc RetryStrategyFunc
}

// Option configures a Transport.
type Option func(*Transport)

// WithBase sets the underlying RoundTripper.
func WithBase(rt http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = rt
	}
}

// WithMaxRetries sets the retry limit for SmartRetry.
func WithMaxRetries(max int) Option {
	return func(t *Transport) {
		t.maxRetries = max
	}
}

// WithBaseDelay sets the initial backoff.
func WithBaseDelay(delay time.Duration) Option {
	return func(t *Transport) {
		t.baseDelay = delay
	}
}

// WithMaxDelay caps any single wait, including Retry-After.
func WithMaxDelay(delay time.Duration) Option {
	return func(t *Transport) {
		t.maxDelay = delay
	}
}

// WithRetryStrategy overrides DefaultRetryStrategy.
func WithRetryStrategy(fn RetryStrategyFunc) Option {
	return func(t *Transport) {
		t.strategyFunc = fn
	}
}

// NewTransport creates a retrying transport over http.DefaultTransport.
func NewTransport(opts ...Option) *Transport {
	t := &Transport{
		base:         http.DefaultTransport,
		maxRetries:   3,
		baseDelay:    2 * time.Second,
		maxDelay:     30 * time.Second,
		strategyFunc: DefaultRetryStrategy,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewClient returns an http.Client using a retrying transport. The client
// has no overall timeout so long-lived event streams stay open; bound calls
// with the request context.
func NewClient(opts ...Option) *http.Client {
	return &http.Client{Transport: NewTransport(opts...)}
}

// RoundTrip implements http.RoundTripper. Network errors are not retried.
// Requests with a body are retried only when GetBody is set.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	current := req

	for attempt := 0; ; attempt++ {
		resp, err := t.base.RoundTrip(current)
		if err != nil {
			return nil, err
		}

		strategy := t.strategyFunc(resp.StatusCode)
		if strategy == NoRetry || attempt >= t.limit(strategy) {
			return resp, nil
		}
		if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
			return resp, nil
		}

		delay := t.delay(strategy, attempt, resp.Header)
		slog.Debug("Retrying HTTP request",
			"url", req.URL.Redacted(),
			"status", resp.StatusCode,
			"attempt", attempt+1,
			"delay", delay)

		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}

		current = req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			current.Body = body
		}
	}
}

func (t *Transport) limit(strategy RetryStrategy) int {
	if strategy == ConservativeRetry {
		return min(conservativeMaxRetries, t.maxRetries)
	}
	return t.maxRetries
}

func (t *Transport) delay(strategy RetryStrategy, attempt int, h http.Header) time.Duration {
	var d time.Duration
	switch strategy {
	case SmartRetry:
		if ra := parseRetryAfter(h.Get("Retry-After")); ra > 0 {
			d = ra
		} else {
			d = time.Duration(math.Pow(2, float64(attempt))) * t.baseDelay
			d += d / 10
		}
	case ConservativeRetry:
		d = time.Duration(attempt+1) * t.baseDelay
	}
	if t.maxDelay > 0 && d > t.maxDelay {
		d = t.maxDelay
	}
	return d
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		return time.Until(at)
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
