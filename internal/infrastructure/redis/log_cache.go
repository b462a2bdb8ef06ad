package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medication-service/internal/domain/entity"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LogCache caches today's action-log map and the adherence percentage in
// Redis. Entries are invalidated on every log write, so a cache miss always
// falls back to the store; failures here are logged and never propagated.
type LogCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewLogCache creates a new log cache
func NewLogCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *LogCache {
	return &LogCache{client: client, ttl: ttl, logger: logger}
}

// todayKey generates the Redis key for a user's today-log map
func (c *LogCache) todayKey(userID, date string) string {
	return fmt.Sprintf("logs:today:%s:%s", userID, date)
}

// adherenceKey generates the Redis key for a user's adherence value
func (c *LogCache) adherenceKey(userID string) string {
	return fmt.Sprintf("adherence:%s", userID)
}

func (c *LogCache) GetTodayLogs(ctx context.Context, userID, date string) (map[string]entity.EntryStatus, bool) {
	data, err := c.client.Get(ctx, c.todayKey(userID, date)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("failed to read today-log cache", zap.Error(err))
		}
		return nil, false
	}

	var logs map[string]entity.EntryStatus
	if err := json.Unmarshal([]byte(data), &logs); err != nil {
		c.logger.Warn("failed to unmarshal today-log cache", zap.Error(err))
		return nil, false
	}
	return logs, true
}

func (c *LogCache) SetTodayLogs(ctx context.Context, userID, date string, logs map[string]entity.EntryStatus) {
	data, err := json.Marshal(logs)
	if err != nil {
		c.logger.Warn("failed to marshal today-log cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.todayKey(userID, date), data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to write today-log cache", zap.Error(err))
	}
}

func (c *LogCache) GetAdherence(ctx context.Context, userID string) (string, bool) {
	value, err := c.client.Get(ctx, c.adherenceKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("failed to read adherence cache", zap.Error(err))
		}
		return "", false
	}
	return value, true
}

func (c *LogCache) SetAdherence(ctx context.Context, userID, value string) {
	if err := c.client.Set(ctx, c.adherenceKey(userID), value, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to write adherence cache", zap.Error(err))
	}
}

// Invalidate drops every cached value derived from the user's logs.
func (c *LogCache) Invalidate(ctx context.Context, userID string) {
	date := time.Now().Format("2006-01-02")
	keys := []string{c.todayKey(userID, date), c.adherenceKey(userID)}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("failed to invalidate log cache", zap.Error(err))
	}
}
