package configstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/campuseye/attendance-engine/internal/domain"
)

const calendarCacheKey = "calendar:" + calendarKey

// RedisCache mirrors the remote calendar into Redis so a remote outage
// leaves the engine serving the last known config. Entries never expire;
// they are overwritten on every successful remote read.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context) (*domain.CalendarConfig, error) {
	data, err := c.client.Get(ctx, calendarCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get cached calendar: %w", err)
	}
	return unmarshalCalendar(data)
}

func (c *RedisCache) Set(ctx context.Context, cfg *domain.CalendarConfig) error {
	payload, err := marshalCalendar(cfg)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, calendarCacheKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to cache calendar: %w", err)
	}
	return nil
}
