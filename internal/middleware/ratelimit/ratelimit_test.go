package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLimiterAllow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 60, Burst: 3})

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed within burst", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("request beyond burst should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("other clients have their own bucket")
	}
	if got := rl.ActiveClients(); got != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", got)
	}
}

func TestLimiterDisabled(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 0})
	for i := 0; i < 100; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatal("disabled limiter must allow everything")
		}
	}
}

func TestMiddleware(t *testing.T) {
	extract := func(*http.Request) string { return "client" }

	tests := []struct {
		name    string
		onLimit func(http.ResponseWriter, *http.Request)
		want    int
	}{
		{name: "default response", want: http.StatusTooManyRequests},
		{
			name:    "custom response",
			onLimit: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
			want:    http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewLimiter(Config{RequestsPerMinute: 60, Burst: 1})
			h := rl.Middleware(extract, tt.onLimit)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))

			first := httptest.NewRecorder()
			h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/balance", nil))
			if first.Code != http.StatusNoContent {
				t.Fatalf("first request: got %d", first.Code)
			}

			second := httptest.NewRecorder()
			h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/balance", nil))
			if second.Code != tt.want {
				t.Fatalf("second request: got %d, want %d", second.Code, tt.want)
			}
			if second.Header().Get("Retry-After") != "1" {
				t.Errorf("Retry-After = %q, want 1", second.Header().Get("Retry-After"))
			}
		})
	}
}
