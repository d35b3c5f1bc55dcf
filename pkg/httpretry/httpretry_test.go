package httpretry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := New(srv.Client(), nil, WithMaxAttempts(3), WithInitialInterval(time.Millisecond))
	body, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("unexpected body: %q", body)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestGetGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(srv.Client(), nil, WithMaxAttempts(3), WithInitialInterval(time.Millisecond))
	if _, err := client.Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error after exhausted attempts")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(srv.Client(), nil, WithMaxAttempts(3), WithInitialInterval(time.Millisecond))
	if _, err := client.Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single attempt for a client error, got %d", got)
	}
}

func TestPostJSONSendsHeaders(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %q", ct)
		}
		if ua := r.Header.Get("User-Agent"); ua != "newscourier-test" {
			t.Errorf("unexpected user agent: %q", ua)
		}
		w.Write([]byte(`{"result":"Y"}`))
	}))
	defer srv.Close()

	client := New(srv.Client(), nil, WithUserAgent("newscourier-test"))
	body, err := client.PostJSON(context.Background(), srv.URL, map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("PostJSON returned error: %v", err)
	}
	if !strings.Contains(string(body), "Y") {
		t.Fatalf("unexpected body: %q", body)
	}
}
