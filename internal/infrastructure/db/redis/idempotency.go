package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "idem"

// IdempotencyStore remembers client-supplied request keys for a TTL so that a
// retried mutating request is applied at most once.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key within scope. It returns false when the key was already
// claimed and has not expired.
func (s *IdempotencyStore) Reserve(ctx context.Context, scope, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, redisKey(scope, key), time.Now().UTC().Format(time.RFC3339Nano), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency reserve: %w", err)
	}
	return ok, nil
}

// Release drops a claim so the request can be retried, used when the guarded
// operation failed.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, redisKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

// redisKey builds the key: idem:{scope}:{key}
func redisKey(scope, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, scope, key)
}
