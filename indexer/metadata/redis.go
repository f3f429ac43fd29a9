package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/initia-labs/transfervolume/config"
)

const keyPrefix = "tokenmeta"

var _ SharedCache = (*RedisCache)(nil)

// RedisCache stores token metadata as JSON under tokenmeta:<chain_id>:<address>
type RedisCache struct {
	client  *redis.Client
	chainId string
	ttl     time.Duration
}

// NewRedisCache connects to REDIS_URL. It returns nil when no url is configured.
func NewRedisCache(ctx context.Context, cfg *config.MetadataConfig, chainId string) (*RedisCache, error) {
	if cfg.RedisUrl == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	return newRedisCache(client, chainId, cfg.RedisTTL), nil
}

func newRedisCache(client *redis.Client, chainId string, ttl time.Duration) *RedisCache {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisCache{client: client, chainId: chainId, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, address string) (TokenMeta, bool, error) {
	raw, err := c.client.Get(ctx, c.key(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return TokenMeta{}, false, nil
	}
	if err != nil {
		return TokenMeta{}, false, err
	}

	var meta TokenMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return TokenMeta{}, false, err
	}
	return meta, true, nil
}

func (c *RedisCache) Set(ctx context.Context, address string, meta TokenMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(address), raw, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(address string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, c.chainId, address)
}
