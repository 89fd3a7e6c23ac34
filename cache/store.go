// Package cache provides a small keyed store used by the login gate, the API
// rate limiter and the employee query cache. Two drivers exist: redis for
// shared state across instances and an in-process fallback for when redis is
// not configured or not reachable at startup.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("cache: key not found")

type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Incr atomically increments the counter at key and returns the new
	// value. A missing key counts from zero.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets the ttl of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error

	// Driver reports "redis" or "memory".
	Driver() string

	Close() error
}
