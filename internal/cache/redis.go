package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrFailedToParseRedisURL indicates REDIS_URL is malformed.
	ErrFailedToParseRedisURL = errors.New("failed to parse redis connection string")

	// ErrRedisNotReady indicates every connection attempt failed.
	ErrRedisNotReady = errors.New("redis did not become ready within the given time period")
)

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	ConnectionURL  string
	RetryAttempts  int
	RetryInterval  time.Duration
	ConnectTimeout time.Duration
}

// Connect opens a Redis client and pings it, retrying up to RetryAttempts times
// with RetryInterval between attempts. The whole sequence is bounded by ConnectTimeout.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisURL, err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	for range attempts {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// RedisCache implements Cache on top of go-redis.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Set stores value with ttl. A non-positive ttl deletes the key instead, since
// Redis would otherwise treat zero as "no expiry".
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		_, err := r.Delete(ctx, key)
		return err
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Get returns the value under key.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, translate("get", err)
	}
	return value, nil
}

// Take runs GETDEL, which is atomic on the server.
func (r *RedisCache) Take(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.GetDel(ctx, key).Bytes()
	if err != nil {
		return nil, translate("getdel", err)
	}
	return value, nil
}

// Replace runs SET key value XX KEEPTTL.
func (r *RedisCache) Replace(ctx context.Context, key string, value []byte) error {
	err := r.client.SetArgs(ctx, key, value, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if err != nil {
		return translate("set keepttl", err)
	}
	return nil
}

// Delete runs DEL and reports whether the key existed.
func (r *RedisCache) Delete(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, unavailable("del", err)
	}
	return n > 0, nil
}

// Ping checks the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func translate(op string, err error) error {
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	return unavailable(op, err)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: redis %s: %v", ErrUnavailable, op, err)
}
