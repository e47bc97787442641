package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/narratia/narratia-api/internal/cache"
	"github.com/narratia/narratia-api/internal/metrics"
	"github.com/narratia/narratia-api/internal/security"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newLimitedHandler(t *testing.T, window cache.Window) (http.Handler, *miniredis.Miniredis, *metrics.InMemoryRecorder) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	recorder := metrics.NewInMemory()
	cfg := RateLimitConfig{
		Logger:   slog.Default(),
		Cache:    cache.NewFromClient(client),
		Security: security.NewLogger(slog.Default(), nil),
		Metrics:  recorder,
	}

	return RateLimit(cfg, window)(okHandler()), mr, recorder
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	window := cache.Window{Name: "contact", Limit: 3, Duration: 15 * time.Minute}
	h, _, recorder := newLimitedHandler(t, window)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Limit") != "3" {
		t.Errorf("X-RateLimit-Limit = %q, want 3", rec.Header().Get("X-RateLimit-Limit"))
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("missing X-RateLimit-Reset header")
	}
	if !strings.Contains(rec.Body.String(), "Too many requests") {
		t.Errorf("body = %q", rec.Body.String())
	}

	if recorder.Snapshot().RateLimited["contact"] != 1 {
		t.Error("rate limited counter not recorded")
	}
}

func TestRateLimit_DifferentClientsDoNotShareWindows(t *testing.T) {
	window := cache.Window{Name: "contact", Limit: 1, Duration: time.Minute}
	h, _, _ := newLimitedHandler(t, window)

	first := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	first.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first client: status = %d", rec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	second.Header.Set("X-Real-IP", "198.51.100.9")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	if rec.Code != http.StatusOK {
		t.Errorf("second client: status = %d, want 200", rec.Code)
	}
}

func TestRateLimit_FailsOpenOnStoreError(t *testing.T) {
	window := cache.Window{Name: "contact", Limit: 1, Duration: time.Minute}
	h, mr, _ := newLimitedHandler(t, window)
	mr.Close()

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200 when the store is down", i+1, rec.Code)
		}
	}
}

func TestRateLimit_DisabledWithoutCache(t *testing.T) {
	cfg := RateLimitConfig{Logger: slog.Default()}
	h := RateLimit(cfg, cache.ContactWindow)(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200 when limiting is disabled", i+1, rec.Code)
		}
	}
}

func TestClientIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded single", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "203.0.113.7"},
		{"forwarded chain takes first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"real ip fallback", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.9"}, "203.0.113.7"},
		{"no headers share the anonymous bucket", nil, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIdentifier(req); got != tt.want {
				t.Errorf("ClientIdentifier() = %q, want %q", got, tt.want)
			}
		})
	}
}
