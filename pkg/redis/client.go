// Package redis wraps go-redis/v9 with the small set of operations the score
// cache needs: byte get/set, delete, prefix invalidation and a key count.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Client wraps a go-redis client.
type Client struct {
	rdb *redis.Client
}

// NewClient connects and fails if Redis does not answer a PING within five
// seconds.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Get returns the raw value stored at key. A missing key yields an error
// for which IsNilError is true.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return c.rdb.Get(ctx, key).Bytes()
}

// Set stores value with the given TTL.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// scanPageSize is the COUNT hint for SCAN and the DEL batch size.
const scanPageSize = 100

// eachPage calls fn with successive pages of keys matching pattern. The
// page slice is reused between calls.
func (c *Client) eachPage(ctx context.Context, pattern string, fn func(keys []string) error) error {
	page := make([]string, 0, scanPageSize)
	iter := c.rdb.Scan(ctx, 0, pattern, scanPageSize).Iterator()
	for iter.Next(ctx) {
		if page = append(page, iter.Val()); len(page) < scanPageSize {
			continue
		}
		if err := fn(page); err != nil {
			return err
		}
		page = page[:0]
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning %s: %w", pattern, err)
	}
	if len(page) == 0 {
		return nil
	}
	return fn(page)
}

// FlushByPattern deletes every key matching the glob pattern and returns
// how many were removed, including on a partial failure.
func (c *Client) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var deleted int64
	err := c.eachPage(ctx, pattern, func(keys []string) error {
		n, err := c.rdb.Del(ctx, keys...).Result()
		deleted += n
		if err != nil {
			return fmt.Errorf("deleting %d keys: %w", len(keys), err)
		}
		return nil
	})
	return deleted, err
}

func (c *Client) CountByPattern(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := c.eachPage(ctx, pattern, func(keys []string) error {
		n += int64(len(keys))
		return nil
	})
	return n, err
}

// IsNilError reports whether err is a Redis nil (key-not-found) error.
func IsNilError(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Client) Close() error { return c.rdb.Close() }

func (c *Client) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }
