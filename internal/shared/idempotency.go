package shared

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyHeader carries the client-chosen key on retried POSTs.
const IdempotencyHeader = "Idempotency-Key"

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore remembers processed request keys in Redis.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim records key for scope and stores the result reference. A key seen
// before returns ErrIdempotencyConflict together with the stored reference.
func (s *IdempotencyStore) Claim(ctx context.Context, scope, key, ref string) (string, error) {
	if s == nil {
		return "", errors.New("idempotency store not initialised")
	}
	if key == "" {
		return "", errors.New("idempotency key required")
	}
	redisKey := "idempotency:" + scope + ":" + key
	ok, err := s.client.SetNX(ctx, redisKey, ref, s.ttl).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return ref, nil
	}
	existing, err := s.client.Get(ctx, redisKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return existing, ErrIdempotencyConflict
}

// Release removes a key, typically used to roll back failed processing.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if s == nil || key == "" {
		return nil
	}
	return s.client.Del(ctx, "idempotency:"+scope+":"+key).Err()
}
