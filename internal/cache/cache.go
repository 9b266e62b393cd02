// Package cache is a Redis-backed response cache for generated statements.
// Statements are read-heavy on the dashboard; a short TTL keeps reports fresh
// without recomputing running balances on every request.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerline-dev/ledgerline/internal/statement"
)

// Cache wraps a Redis client. A nil *Cache disables caching.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New connects to Redis and verifies the connection.
func New(addr, password string, db int, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("redis connected", slog.String("addr", addr))
	return &Cache{client: client, ttl: ttl, logger: logger}, nil
}

// StatementKey formats the cache key for a statement filter.
func StatementKey(f statement.Filter) string {
	return fmt.Sprintf("stmt:v1:a%d:g%d:c%d:%s:%s:%s:%s:%s",
		f.AccountID, f.GroupID, f.CurrencyID,
		f.From.Format("2006-01-02"), f.To.Format("2006-01-02"),
		f.Mode, f.SummaryType, f.DetailedType)
}

// GetStatement returns a cached statement payload, or nil on a miss. A miss
// is not an error.
func (c *Cache) GetStatement(ctx context.Context, key string) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return data, nil
}

// SetStatement caches a statement payload under the configured TTL.
func (c *Cache) SetStatement(ctx context.Context, key string, data []byte) error {
	if c == nil {
		return nil
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
