package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and verifies connectivity
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing go-redis client
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks Redis connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func stockKey(bookID int64) string {
	return fmt.Sprintf("stock:%d", bookID)
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency:order:%s", key)
}

// SetStock mirrors a book's stock level
func (c *Client) SetStock(ctx context.Context, bookID int64, quantity int) error {
	return c.rdb.Set(ctx, stockKey(bookID), quantity, 0).Err()
}

// SetStocks mirrors several stock levels in one round trip
func (c *Client) SetStocks(ctx context.Context, stock map[int64]int) error {
	if len(stock) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for bookID, quantity := range stock {
		pipe.Set(ctx, stockKey(bookID), quantity, 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetStock returns the mirrored stock level. The boolean is false on a cache miss.
func (c *Client) GetStock(ctx context.Context, bookID int64) (int, bool, error) {
	quantity, err := c.rdb.Get(ctx, stockKey(bookID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return quantity, true, nil
}

// DeleteStock drops a mirrored stock level
func (c *Client) DeleteStock(ctx context.Context, bookID int64) error {
	return c.rdb.Del(ctx, stockKey(bookID)).Err()
}

// RememberOrder stores the order created for an idempotency key
func (c *Client) RememberOrder(ctx context.Context, key string, orderID int64, ttl time.Duration) error {
	return c.rdb.Set(ctx, idempotencyKey(key), orderID, ttl).Err()
}

// LookupOrder returns the order previously created for an idempotency key
func (c *Client) LookupOrder(ctx context.Context, key string) (int64, bool, error) {
	orderID, err := c.rdb.Get(ctx, idempotencyKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return orderID, true, nil
}
