package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/port"
)

// RateLimitRepository persists request attempts in Redis sorted sets
// keyed by caller identifier. Scores are unix nanoseconds, which makes
// window trims a single ZREMRANGEBYSCORE.
type RateLimitRepository struct {
	client    *redis.Client
	keyPrefix string
	keyTTL    time.Duration
}

// NewRateLimitRepository constructs a repository using the provided
// Redis client. keyTTL bounds how long an idle identifier's set
// survives; it should exceed the largest window in use.
func NewRateLimitRepository(client *redis.Client, keyPrefix string, keyTTL time.Duration) *RateLimitRepository {
	return &RateLimitRepository{client: client, keyPrefix: keyPrefix, keyTTL: keyTTL}
}

// RecordAttempt appends the attempt timestamp to the identifier's set.
func (r *RateLimitRepository) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	key := r.key(identifier)
	score := at.UnixNano()

	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: score})
	if r.keyTTL > 0 {
		pipe.Expire(ctx, key, r.keyTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}

	return nil
}

// CountAttempts returns how many attempts fall inside the window ending
// at the reference time.
func (r *RateLimitRepository) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	lower := fmt.Sprintf("%d", reference.Add(-window).UnixNano())
	upper := fmt.Sprintf("%d", reference.UnixNano())

	count, err := r.client.ZCount(ctx, r.key(identifier), lower, upper).Result()
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}

	return int(count), nil
}

// TrimWindow drops attempts older than the window relative to the
// reference time.
func (r *RateLimitRepository) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}

	threshold := fmt.Sprintf("%d", reference.Add(-window).UnixNano()-1)
	if err := r.client.ZRemRangeByScore(ctx, r.key(identifier), "-inf", threshold).Err(); err != nil {
		return fmt.Errorf("trim window: %w", err)
	}

	return nil
}

func (r *RateLimitRepository) key(identifier string) string {
	if r.keyPrefix == "" {
		return identifier
	}
	return r.keyPrefix + ":" + identifier
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
