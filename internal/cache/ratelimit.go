package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ratelimitKeyPrefix is the Redis key prefix for rate limit windows.
const ratelimitKeyPrefix = "ratelimit:"

// Window describes a sliding rate limit window for one endpoint.
type Window struct {
	// Name is the key namespace, one per endpoint.
	Name string
	// Limit is the number of requests admitted per window.
	Limit int
	// Duration is the window length.
	Duration time.Duration
}

// The three admission windows. Each endpoint is limited independently
// per client identifier.
var (
	ContactWindow   = Window{Name: "contact", Limit: 3, Duration: 15 * time.Minute}
	SubscribeWindow = Window{Name: "subscribe", Limit: 5, Duration: time.Hour}
	DownloadWindow  = Window{Name: "download", Limit: 20, Duration: time.Hour}
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// slidingWindowScript implements a sliding-window log in a sorted set.
// It trims aged entries, admits the request if the window has room, and
// otherwise reports when the oldest admitted request ages out. The whole
// check-and-record runs atomically per identifier.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])      -- current time in ms
	local window = tonumber(ARGV[2])   -- window length in ms
	local limit = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window)
		return {1, limit - count - 1, now + window}
	end

	local reset = now + window
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	if oldest[2] then
		reset = tonumber(oldest[2]) + window
	end
	return {0, 0, reset}
`)

// CheckRateLimit checks and updates the sliding window for one
// (window, identifier) pair. Errors from the store are returned as-is;
// callers are expected to fail open on them.
func (c *Cache) CheckRateLimit(ctx context.Context, w Window, identifier string) (*RateLimitResult, error) {
	key := ratelimitKeyPrefix + w.Name + ":" + identifier
	now := time.Now()

	// Member values must be unique even when two requests land in the
	// same millisecond.
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())

	result, err := slidingWindowScript.Run(ctx, c.client,
		[]string{key},
		now.UnixMilli(), w.Duration.Milliseconds(), w.Limit, member,
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if len(result) != 3 {
		return nil, fmt.Errorf("rate limit check: unexpected script result %v", result)
	}

	resetAt := time.UnixMilli(result[2])
	retryAfter := time.Until(resetAt)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	return &RateLimitResult{
		Allowed:    result[0] == 1,
		Limit:      w.Limit,
		Remaining:  int(result[1]),
		ResetAt:    resetAt,
		RetryAfter: retryAfter.Round(time.Second),
	}, nil
}
