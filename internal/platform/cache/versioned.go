package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Versioned caches JSON values under a per-scope version counter. Bumping a
// scope makes every key built from the previous version unreachable; the
// stale entries expire with their TTL.
type Versioned struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewVersioned instantiates the cache helper. A nil client disables caching.
func NewVersioned(client *redis.Client, prefix string, ttl time.Duration) *Versioned {
	return &Versioned{client: client, prefix: prefix, ttl: ttl}
}

func (c *Versioned) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func (c *Versioned) versionKey(scope string) string {
	return c.prefix + ":version:" + scope
}

// Version returns the current version of scope; a missing counter reads as 0.
func (c *Versioned) Version(ctx context.Context, scope string) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, c.versionKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return ver, err
}

// Key composes the cache key for parts under the current scope version.
func (c *Versioned) Key(ctx context.Context, scope string, parts ...string) (string, error) {
	ver, err := c.Version(ctx, scope)
	if err != nil {
		return "", err
	}
	joined := strings.Join(append([]string{c.prefix, scope}, parts...), ":")
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// Bump invalidates every key of scope.
func (c *Versioned) Bump(ctx context.Context, scope string) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, c.versionKey(scope)).Err()
}

// Fetch loads a cached value or populates it using the loader. Redis read
// and write failures fall back to the loader result.
func Fetch[T any](ctx context.Context, c *Versioned, scope string, loader func(context.Context) (T, error), parts ...string) (T, error) {
	var zero T
	if loader == nil {
		return zero, errors.New("cache: loader required")
	}
	if !c.enabled() {
		return loader(ctx)
	}
	key, err := c.Key(ctx, scope, parts...)
	if err != nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if json.Unmarshal(payload, &cached) == nil {
			return cached, nil
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return zero, err
	}
	if raw, err := json.Marshal(value); err == nil {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return value, nil
}
