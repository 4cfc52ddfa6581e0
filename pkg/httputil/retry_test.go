package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fastConfig(retries int) RetryConfig {
	return RetryConfig{
		MaxRetries:   retries,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetryClientStatusHandling(t *testing.T) {
	tests := []struct {
		name         string
		failStatus   int
		failures     int32
		retries      int
		wantStatus   int
		wantAttempts int32
	}{
		{name: "retriesOn503", failStatus: http.StatusServiceUnavailable, failures: 2, retries: 3, wantStatus: http.StatusOK, wantAttempts: 3},
		{name: "retriesOn429", failStatus: http.StatusTooManyRequests, failures: 1, retries: 3, wantStatus: http.StatusOK, wantAttempts: 2},
		{name: "retriesOn502", failStatus: http.StatusBadGateway, failures: 1, retries: 3, wantStatus: http.StatusOK, wantAttempts: 2},
		{name: "noRetryOn400", failStatus: http.StatusBadRequest, failures: 5, retries: 3, wantStatus: http.StatusBadRequest, wantAttempts: 1},
		{name: "noRetryOn404", failStatus: http.StatusNotFound, failures: 5, retries: 3, wantStatus: http.StatusNotFound, wantAttempts: 1},
		{name: "retriesDisabled", failStatus: http.StatusServiceUnavailable, failures: 5, retries: 0, wantStatus: http.StatusServiceUnavailable, wantAttempts: 1},
		{name: "respectsMaxRetries", failStatus: http.StatusInternalServerError, failures: 10, retries: 2, wantStatus: http.StatusInternalServerError, wantAttempts: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&attempts, 1) <= tt.failures {
					w.WriteHeader(tt.failStatus)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := NewRetryClient(server.Client(), fastConfig(tt.retries))
			req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if got := atomic.LoadInt32(&attempts); got != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", got, tt.wantAttempts)
			}
		})
	}
}

func TestRetryClientWithRequestBody(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != "payload" {
			t.Errorf("body = %q, want payload", body)
		}
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewRetryClient(server.Client(), fastConfig(3))
	req, _ := http.NewRequest(http.MethodPost, server.URL, strings.NewReader("payload"))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if atomic.LoadInt32(&attempts) != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestRetryClientStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewRetryClient(server.Client(), RetryConfig{MaxRetries: 5, InitialDelay: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	start := time.Now()
	_, err := client.Do(req)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 900*time.Millisecond {
		t.Error("client kept waiting after the context expired")
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("image-bytes"))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewRetryClient(server.Client(), fastConfig(0))

	data, err := client.Fetch(context.Background(), server.URL+"/ok", 0)
	if err != nil || string(data) != "image-bytes" {
		t.Errorf("Fetch(/ok) = %q, %v", data, err)
	}

	if _, err := client.Fetch(context.Background(), server.URL+"/missing", 0); err == nil {
		t.Error("Fetch(/missing) expected error")
	}

	if _, err := client.Fetch(context.Background(), server.URL+"/ok", 4); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Fetch with limit error = %v, want ErrTooLarge", err)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
	if config.InitialDelay != 500*time.Millisecond {
		t.Errorf("expected InitialDelay 500ms, got %v", config.InitialDelay)
	}
}

func TestNewRetryClientAppliesDefaults(t *testing.T) {
	client := NewRetryClient(nil, RetryConfig{MaxRetries: -1})

	if client.client != http.DefaultClient {
		t.Error("expected default http client")
	}
	if client.config.MaxRetries != 0 {
		t.Errorf("expected MaxRetries 0, got %d", client.config.MaxRetries)
	}
	if client.config.Multiplier != 2.0 {
		t.Errorf("expected Multiplier 2.0, got %v", client.config.Multiplier)
	}
}
