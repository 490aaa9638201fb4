package trailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache remembers resolved trailer URLs per item. Fallback URLs are not
// cached so a later request can still find the real trailer.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: client, ttl: ttl}
}

func cacheKey(itemID int) string {
	return fmt.Sprintf("trailer:%d", itemID)
}

// Get returns the cached URL for the item. A miss is ("", false, nil).
func (c *Cache) Get(ctx context.Context, itemID int) (string, bool, error) {
	url, err := c.redis.Get(ctx, cacheKey(itemID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read trailer cache: %w", err)
	}
	return url, true, nil
}

func (c *Cache) Set(ctx context.Context, itemID int, url string) error {
	if err := c.redis.Set(ctx, cacheKey(itemID), url, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write trailer cache: %w", err)
	}
	return nil
}
