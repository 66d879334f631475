package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects to url, which may be a redis:// URL or a bare host:port.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		url = "localhost:6379"
	}

	var opts *redis.Options
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: url}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// MarketCache keeps short-lived JSON copies of exchange responses.
type MarketCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewMarketCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *MarketCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketCache{client: client, ttl: ttl, logger: logger}
}

func Key(exchangeID, kind, key string) string {
	return "market:" + exchangeID + ":" + kind + ":" + key
}

// Get decodes the cached value into dst. Redis failures count as misses.
func (c *MarketCache) Get(ctx context.Context, exchangeID, kind, key string, dst any) bool {
	raw, err := c.client.Get(ctx, Key(exchangeID, kind, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("market cache read failed", "kind", kind, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("market cache decode failed", "kind", kind, "err", err)
		return false
	}
	return true
}

func (c *MarketCache) Set(ctx context.Context, exchangeID, kind, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("market cache encode failed", "kind", kind, "err", err)
		return
	}
	if err := c.client.Set(ctx, Key(exchangeID, kind, key), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("market cache write failed", "kind", kind, "err", err)
	}
}
