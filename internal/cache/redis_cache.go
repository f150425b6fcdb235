package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"shiftledger/backend/internal/domain"
)

const keyPrefix = "shiftledger"

// RedisSummaryCache namespaces entries by a per-tenant generation counter.
// Invalidate bumps the counter.
type RedisSummaryCache struct {
	client *redis.Client
}

func NewRedisSummaryCache(addr string, password string, db int) *RedisSummaryCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSummaryCache{client: client}
}

func (c *RedisSummaryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}

func generationKey(tenantID string) string {
	return fmt.Sprintf("%s:gen:%s", keyPrefix, tenantID)
}

func summaryKey(tenantID string, generation int64, shiftID string) string {
	return fmt.Sprintf("%s:summary:%s:%d:%s", keyPrefix, tenantID, generation, shiftID)
}

func (c *RedisSummaryCache) generation(ctx context.Context, tenantID string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(tenantID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisSummaryCache) Get(ctx context.Context, tenantID, shiftID string) (*domain.ShiftSummary, bool, error) {
	gen, err := c.generation(ctx, tenantID)
	if err != nil {
		return nil, false, err
	}
	val, err := c.client.Get(ctx, summaryKey(tenantID, gen, shiftID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var summary domain.ShiftSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, false, err
	}
	return &summary, true, nil
}

func (c *RedisSummaryCache) Set(ctx context.Context, tenantID, shiftID string, value *domain.ShiftSummary, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	gen, err := c.generation(ctx, tenantID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(tenantID, gen, shiftID), payload, ttl).Err()
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context, tenantID string) error {
	return c.client.Incr(ctx, generationKey(tenantID)).Err()
}
