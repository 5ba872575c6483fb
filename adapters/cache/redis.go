package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Marrmee/spark-gate/core"
	"github.com/Marrmee/spark-gate/ports"
)

// RedisCache implements ports.Cache over the shared proposal cache. Snapshots
// and index lists are written by the proposal-read path; this adapter only
// reads them and deletes snapshot keys.
type RedisCache struct {
	client *redis.Client
}

var _ ports.Cache = (*RedisCache)(nil)

// NewRedisCache connects to the cache at redisURL and verifies the connection.
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client, shared with the event
// publisher.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// IndexList reads a category's index list, a JSON integer array. A missing
// key is an empty list.
func (c *RedisCache) IndexList(ctx context.Context, category core.ProposalCategory) ([]int, error) {
	raw, err := c.client.Get(ctx, IndexListKey(category)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read index list for %s: %w", category, err)
	}
	var indices []int
	if err := json.Unmarshal([]byte(raw), &indices); err != nil {
		return nil, fmt.Errorf("decode index list for %s: %w", category, err)
	}
	return indices, nil
}

// Snapshot reads and decodes a proposal's cached snapshot. A missing key
// yields (nil, nil).
func (c *RedisCache) Snapshot(ctx context.Context, category core.ProposalCategory, index int) (*core.ProposalSnapshot, error) {
	key := SnapshotKey(category, index)
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	snapshot := &core.ProposalSnapshot{}
	if err := json.Unmarshal([]byte(raw), snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return snapshot, nil
}

// DeleteSnapshot evicts a proposal's cache entry.
func (c *RedisCache) DeleteSnapshot(ctx context.Context, category core.ProposalCategory, index int) error {
	key := SnapshotKey(category, index)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", key, err)
	}
	return nil
}

// Ping checks the cache connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Client returns the underlying Redis client so main can share the
// connection with the event publisher.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
