package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/incr_expire.lua
var incrExpireScript string

//go:embed scripts/release_lock.lua
var releaseLockScript string

const orderSequenceTTL = 48 * time.Hour

type Client struct {
	rdb           *redis.Client
	counterScript *redis.Script
	releaseScript *redis.Script
}

// NewClient creates a new Redis client and verifies the connection
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

	return New(rdb), nil
}

// New wraps an existing go-redis client with Lua scripts loaded
func New(rdb *redis.Client) *Client {
	return &Client{
		rdb:           rdb,
		counterScript: redis.NewScript(incrExpireScript),
		releaseScript: redis.NewScript(releaseLockScript),
	}
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Allow counts one hit against key in a fixed window and reports whether
// the hit is within limit. The window starts at the first hit.
func (c *Client) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rateKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := c.incrWithTTL(ctx, rateKey, window)
	if err != nil {
		return false, fmt.Errorf("rate limit update failed: %w", err)
	}

	return count <= int64(limit), nil
}

// NextOrderSequence returns the next order sequence number for a day key
// such as "261019". Counters expire two days after their first use.
func (c *Client) NextOrderSequence(ctx context.Context, day string) (int64, error) {
	key := fmt.Sprintf("ordernum:%s", day)

	seq, err := c.incrWithTTL(ctx, key, orderSequenceTTL)
	if err != nil {
		return 0, fmt.Errorf("order sequence update failed: %w", err)
	}

	return seq, nil
}

// incrWithTTL atomically increments key and gives it ttl when it has no expiry
func (c *Client) incrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	result, err := c.counterScript.Run(ctx, c.rdb, []string{key}, ttl.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}

	n, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result type %T", result)
	}
	return n, nil
}

// AcquireLock acquires a distributed lock. The returned token identifies
// the holder and must be passed to ReleaseLock.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseLock releases a distributed lock if token still holds it. A lock
// that expired and was taken by another caller is left alone.
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) error {
	if err := c.releaseScript.Run(ctx, c.rdb, []string{fmt.Sprintf("lock:%s", lockKey)}, token).Err(); err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}
