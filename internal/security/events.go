// Package security provides a best-effort audit sink for rejected and
// suspicious requests.
package security

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// StreamKey is the Redis stream holding security events.
	StreamKey = "stream:security_events"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 10000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// EventType classifies a security event.
type EventType string

// Recognized event types.
const (
	EventRateLimitExceeded     EventType = "rate_limit_exceeded"
	EventInvalidInput          EventType = "invalid_input"
	EventPathTraversalAttempt  EventType = "path_traversal_attempt"
	EventXSSAttemptBlocked     EventType = "xss_attempt_blocked"
	EventFileNotWhitelisted    EventType = "file_not_whitelisted"
	EventEmailValidationFailed EventType = "email_validation_failed"
	EventSuspiciousRequest     EventType = "suspicious_request"
)

// Event is a write-once audit record. It is never read back by the
// request pipeline.
type Event struct {
	Type     EventType      `json:"type"`
	Endpoint string         `json:"endpoint"`
	IP       string         `json:"ip,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// Logger records security events. Events always go to the structured
// log; when Redis is configured they are additionally appended to a
// capped stream for later analysis. Both paths are fire-and-forget:
// a handler never fails because its audit write did.
type Logger struct {
	logger *slog.Logger
	redis  *redis.Client
}

// NewLogger creates a security event logger. The Redis client may be
// nil, in which case only structured logging happens.
func NewLogger(logger *slog.Logger, client *redis.Client) *Logger {
	return &Logger{
		logger: logger.With("component", "security"),
		redis:  client,
	}
}

// Log records one security event.
func (l *Logger) Log(ctx context.Context, event Event) {
	attrs := []any{
		"type", string(event.Type),
		"endpoint", event.Endpoint,
	}
	if event.IP != "" {
		attrs = append(attrs, "ip", event.IP)
	}
	if len(event.Details) > 0 {
		attrs = append(attrs, "details", event.Details)
	}
	l.logger.Warn("security event", attrs...)

	if l.redis == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		l.logger.Debug("security event marshal failed", "error", err)
		return
	}

	// Detached context: publishing must not be cancelled by the
	// request ending, and must not block it either.
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()

	err = l.redis.XAdd(publishCtx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(payload),
		},
	}).Err()
	if err != nil {
		l.logger.Debug("security event publish failed", "error", err)
	}
}
