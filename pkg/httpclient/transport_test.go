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

package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultRetryStrategy(t *testing.T) {
	tests := []struct {
		status int
		want   RetryStrategy
	}{
		{http.StatusOK, NoRetry},
		{http.StatusBadRequest, NoRetry},
		{http.StatusNotFound, NoRetry},
		{http.StatusTooManyRequests, SmartRetry},
		{http.StatusServiceUnavailable, SmartRetry},
		{http.StatusRequestTimeout, ConservativeRetry},
		{http.StatusInternalServerError, ConservativeRetry},
		{http.StatusBadGateway, ConservativeRetry},
		{http.StatusGatewayTimeout, ConservativeRetry},
	}
	for _, tt := range tests {
		if got := DefaultRetryStrategy(tt.status); got != tt.want {
			t.Errorf("DefaultRetryStrategy(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

// flakyServer fails the first n requests with status, then echoes the body.
func flakyServer(t *testing.T, n int32, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= n {
			w.WriteHeader(status)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestTransport_RetriesThenSucceeds(t *testing.T) {
	srv, calls := flakyServer(t, 2, http.StatusServiceUnavailable)
	client := NewClient(WithBaseDelay(time.Millisecond))

	resp, err := client.Post(srv.URL, "application/json", strings.NewReader(`{"ping":1}`))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if string(body) != `{"ping":1}` {
		t.Errorf("body = %q, request body was not replayed", body)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestTransport_NoRetryOnClientError(t *testing.T) {
	srv, calls := flakyServer(t, 5, http.StatusBadRequest)
	client := NewClient(WithBaseDelay(time.Millisecond))

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestTransport_ConservativeLimit(t *testing.T) {
	srv, calls := flakyServer(t, 10, http.StatusBadGateway)
	client := NewClient(WithBaseDelay(time.Millisecond), WithMaxRetries(5))

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	if got := calls.Load(); got != 1+conservativeMaxRetries {
		t.Errorf("calls = %d, want %d", got, 1+conservativeMaxRetries)
	}
}

func TestTransport_SmartLimit(t *testing.T) {
	srv, calls := flakyServer(t, 10, http.StatusTooManyRequests)
	client := NewClient(WithBaseDelay(time.Millisecond), WithMaxRetries(3))

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if calls.Load() != 4 {
		t.Errorf("calls = %d, want 4", calls.Load())
	}
}

func TestTransport_ContextCancelledDuringBackoff(t *testing.T) {
	srv, _ := flakyServer(t, 10, http.StatusTooManyRequests)
	client := NewClient(WithBaseDelay(time.Hour), WithMaxDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	start := time.Now()
	_, err := client.Do(req)
	if err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("backoff ignored context cancellation")
	}
}

func TestTransport_Delay(t *testing.T) {
	tr := NewTransport(WithBaseDelay(100*time.Millisecond), WithMaxDelay(time.Second))

	h := http.Header{}
	if got := tr.delay(SmartRetry, 0, h); got != 110*time.Millisecond {
		t.Errorf("smart attempt 0 = %v", got)
	}
	if got := tr.delay(SmartRetry, 2, h); got != 440*time.Millisecond {
		t.Errorf("smart attempt 2 = %v", got)
	}
	if got := tr.delay(SmartRetry, 10, h); got != time.Second {
		t.Errorf("smart attempt 10 = %v, want capped", got)
	}
	if got := tr.delay(ConservativeRetry, 1, h); got != 200*time.Millisecond {
		t.Errorf("conservative attempt 1 = %v", got)
	}

	h.Set("Retry-After", "1")
	if got := tr.delay(SmartRetry, 0, h); got != time.Second {
		t.Errorf("retry-after = %v", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("7"); got != 7*time.Second {
		t.Errorf("seconds = %v", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Errorf("invalid = %v", got)
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > time.Minute {
		t.Errorf("http date = %v", got)
	}
}
