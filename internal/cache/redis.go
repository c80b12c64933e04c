// Package cache keeps per-user unread notification counters in Redis.
// The counter is a cache, not the source of truth: a miss falls back to
// a COUNT query and Redis being unreachable never fails a request.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const unreadCountTTL = 24 * time.Hour

type Cache struct {
	rdb *redis.Client
}

// New connects to Redis at addr. An empty addr disables the cache and
// every method becomes a no-op miss.
func New(addr, password string, db int) *Cache {
	if addr == "" {
		return &Cache{}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		slog.Warn("redis unreachable, unread counters fall back to the database", "addr", addr, "err", err)
	}
	return &Cache{rdb: rdb}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func unreadKey(userID uint) string {
	return fmt.Sprintf("ustbian:unread:%d", userID)
}

// GetUnread returns the cached unread count for the user and whether the
// counter was present.
func (c *Cache) GetUnread(ctx context.Context, userID uint) (int64, bool) {
	if !c.Enabled() {
		return 0, false
	}
	n, err := c.rdb.Get(ctx, unreadKey(userID)).Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *Cache) SetUnread(ctx context.Context, userID uint, count int64) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, unreadKey(userID), count, unreadCountTTL).Err(); err != nil {
		slog.Warn("caching unread count", "user_id", userID, "err", err)
	}
}

// IncrUnread bumps the counter only when it already exists; otherwise the
// next read repopulates it from the database.
func (c *Cache) IncrUnread(ctx context.Context, userID uint) {
	c.adjustUnread(ctx, userID, 1)
}

func (c *Cache) DecrUnread(ctx context.Context, userID uint) {
	c.adjustUnread(ctx, userID, -1)
}

func (c *Cache) adjustUnread(ctx context.Context, userID uint, delta int64) {
	if !c.Enabled() {
		return
	}
	key := unreadKey(userID)
	exists, err := c.rdb.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}
	n, err := c.rdb.IncrBy(ctx, key, delta).Result()
	if err != nil {
		slog.Warn("adjusting unread count", "user_id", userID, "err", err)
		return
	}
	if n < 0 {
		c.rdb.Set(ctx, key, 0, unreadCountTTL)
	}
}

// InvalidateUnread drops the counter so the next read recomputes it.
func (c *Cache) InvalidateUnread(ctx context.Context, userID uint) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Del(ctx, unreadKey(userID)).Err(); err != nil {
		slog.Warn("invalidating unread count", "user_id", userID, "err", err)
	}
}
