package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	liveConfigKey    = "config:live"
	configVersionKey = "config:version"
)

// ConfigCache is the Redis-backed hot tier for live configuration. The fast
// polling endpoint reads the whole hash in one round trip; writers replace it
// atomically and bump a version counter that clients use to detect change.
type ConfigCache struct {
	client *redis.Client
}

// NewConfigCache creates a ConfigCache wrapping the given Redis client.
func NewConfigCache(client *redis.Client) *ConfigCache {
	return &ConfigCache{client: client}
}

// GetLive returns the cached live-config map, or an empty map when the hash
// has not been filled yet.
func (c *ConfigCache) GetLive(ctx context.Context) (map[string]string, error) {
	values, err := c.client.HGetAll(ctx, liveConfigKey).Result()
	if err != nil {
		return nil, fmt.Errorf("live config read: %w", err)
	}
	return values, nil
}

// SetLive replaces the cached live-config map in a single transaction so
// readers never observe a partially written hash.
func (c *ConfigCache) SetLive(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, liveConfigKey)
	args := make([]any, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	pipe.HSet(ctx, liveConfigKey, args...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("live config write: %w", err)
	}
	return nil
}

// BumpVersion advances the change marker observed by polling clients.
func (c *ConfigCache) BumpVersion(ctx context.Context) (int64, error) {
	v, err := c.client.Incr(ctx, configVersionKey).Result()
	if err != nil {
		return 0, fmt.Errorf("config version bump: %w", err)
	}
	return v, nil
}

// Version returns the current change marker, zero when unset.
func (c *ConfigCache) Version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, configVersionKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("config version read: %w", err)
	}
	return v, nil
}
