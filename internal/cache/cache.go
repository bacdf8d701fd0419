// Package cache provides the short-lived key/value store backing OTP codes and
// verification tokens.
//
// Two implementations exist: RedisCache for shared deployments and MemoryCache
// for single-process development and tests. Both honor the same contract:
//
//   - A missing or expired key yields ErrCacheMiss.
//   - Transport failures (timeouts, connection loss) yield ErrUnavailable, never
//     ErrCacheMiss, so callers can tell "the session expired" apart from "try again".
//   - A TTL of zero or less stores a value that is already expired.
package cache

import (
	"context"
	"time"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

var (
	// ErrCacheMiss indicates the key does not exist or has expired.
	ErrCacheMiss = apperrors.New("cache miss")

	// ErrUnavailable indicates the cache could not be reached. It is retryable.
	ErrUnavailable = apperrors.Wrap(apperrors.ErrUnavailable, "cache unavailable")
)

// Cache is a TTL-bound byte store.
type Cache interface {
	// Set stores value under key for ttl, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Take atomically reads and deletes key. Of several concurrent callers at
	// most one receives the value; the others get ErrCacheMiss.
	Take(ctx context.Context, key string) ([]byte, error)

	// Replace overwrites an existing key and keeps its remaining TTL.
	// Returns ErrCacheMiss if the key is absent.
	Replace(ctx context.Context, key string, value []byte) error

	// Delete removes key and reports whether this call removed it.
	Delete(ctx context.Context, key string) (bool, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error
}
