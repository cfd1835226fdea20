// Package ratelimit provides a fixed-window counter backed by Redis.
//
// Both code issuance throttling and failed-attempt lockout use the same
// counter; only the key prefix and the window differ.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts hits per key inside a fixed window and reports whether a
// key is over its limit.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Hit(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// FixedWindow is a Redis-backed Limiter. The counter key expires with the
// window, so a new window starts from zero without any cleanup job.
type FixedWindow struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewFixedWindow builds a limiter allowing at most limit hits per window
// under the given key prefix.
func NewFixedWindow(client *redis.Client, prefix string, limit int64, window time.Duration) *FixedWindow {
	return &FixedWindow{
		client: client,
		prefix: "ratelimit:" + prefix + ":",
		limit:  limit,
		window: window,
	}
}

// Allow reports whether the key is still under its limit. It does not count
// a hit; callers decide which outcomes consume budget.
func (f *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	n, err := f.client.Get(ctx, f.prefix+key).Int64()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return n < f.limit, nil
}

// Hit counts one hit against the key and reports whether the key is still
// within its limit. Counting and the verdict are one INCR round trip, so
// concurrent hits near the limit cannot all slip under it. The first hit
// in a window arms the window expiry on the counter.
func (f *FixedWindow) Hit(ctx context.Context, key string) (bool, error) {
	fk := f.prefix + key

	n, err := f.client.Incr(ctx, fk).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := f.client.Expire(ctx, fk, f.window).Err(); err != nil {
			return false, err
		}
	}
	return n <= f.limit, nil
}

// Reset clears the counter before its window ends, used when a successful
// verification should lift a user's lockout immediately.
func (f *FixedWindow) Reset(ctx context.Context, key string) error {
	return f.client.Del(ctx, f.prefix+key).Err()
}
