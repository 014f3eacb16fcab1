package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coffee-shop/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// IdempotencyStore remembers the outcome of a request keyed by a
// caller-supplied idempotency key.
type IdempotencyStore interface {
	// TryLock claims scope/key. It returns false if another request holds or
	// completed it.
	TryLock(ctx context.Context, scope, key string) (bool, error)

	// Remember stores the response of a completed request.
	Remember(ctx context.Context, scope, key, value string) error

	// Recall returns the stored response, if any.
	Recall(ctx context.Context, scope, key string) (string, bool, error)

	// Release drops the claim so the request may be retried.
	Release(ctx context.Context, scope, key string) error
}

// RedisIdempotencyStore implements IdempotencyStore with SETNX claims.
type RedisIdempotencyStore struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("redis connection established")
	return rdb, nil
}

// NewRedisIdempotencyStore creates a store whose entries expire after ttl.
func NewRedisIdempotencyStore(rdb redis.UniversalClient, ttl time.Duration, logger zerolog.Logger) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With().Str("component", "idempotency").Logger(),
	}
}

func lockKey(scope, key string) string   { return "idemp:" + scope + ":" + key }
func resultKey(scope, key string) string { return "idemp:map:" + scope + ":" + key }

func (s *RedisIdempotencyStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, lockKey(scope, key), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if !ok {
		s.logger.Debug().Str("scope", scope).Str("key", key).Msg("idempotency key already claimed")
	}
	return ok, nil
}

func (s *RedisIdempotencyStore) Remember(ctx context.Context, scope, key, value string) error {
	if err := s.rdb.Set(ctx, resultKey(scope, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, resultKey(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read idempotent response: %w", err)
	}
	return val, true, nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.rdb.Del(ctx, lockKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

var _ IdempotencyStore = (*RedisIdempotencyStore)(nil)
