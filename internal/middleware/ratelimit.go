package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/narratia/narratia-api/internal/cache"
	"github.com/narratia/narratia-api/internal/metrics"
	"github.com/narratia/narratia-api/internal/security"
)

// RateLimitConfig holds shared dependencies for rate limiting middleware.
type RateLimitConfig struct {
	Logger *slog.Logger
	// Cache is the backing store. Nil disables limiting entirely:
	// every request is admitted.
	Cache    *cache.Cache
	Security *security.Logger
	Metrics  metrics.Recorder
}

// RateLimit returns middleware enforcing one sliding window per client
// identifier. Rate limiting is a best-effort defense, never a
// correctness dependency: an unconfigured or failing store admits the
// request.
func RateLimit(cfg RateLimitConfig, window cache.Window) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Cache == nil {
				next.ServeHTTP(w, r)
				return
			}

			identifier := ClientIdentifier(r)

			result, err := cfg.Cache.CheckRateLimit(r.Context(), window, identifier)
			if err != nil {
				// Fail open - allow request
				cfg.Logger.Warn("rate limit check failed, allowing request",
					slog.String("error", err.Error()),
					slog.String("window", window.Name),
					slog.String("identifier", identifier),
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, result)

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("window", window.Name),
					slog.String("identifier", identifier),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncRateLimited(window.Name)

				if cfg.Security != nil {
					cfg.Security.Log(r.Context(), security.Event{
						Type:     security.EventRateLimitExceeded,
						Endpoint: r.URL.Path,
						IP:       identifier,
					})
				}

				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				writeRateLimitError(w, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, result *cache.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", result.ResetAt.UTC().Format(time.RFC3339))
}

// writeRateLimitError writes a 429 Too Many Requests response.
func writeRateLimitError(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	msg := fmt.Sprintf(`{"error":"Too many requests. Please try again later.","retryAfter":%d}`,
		int(retryAfter.Seconds()))
	_, _ = w.Write([]byte(msg))
}

// ClientIdentifier derives the rate limit identifier for a request:
// the first X-Forwarded-For hop, then X-Real-IP. Clients arriving with
// neither header share the literal "anonymous" bucket.
func ClientIdentifier(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if i := strings.IndexByte(xff, ','); i >= 0 {
			first = xff[:i]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return "anonymous"
}
