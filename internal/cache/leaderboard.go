// Package cache keeps computed leaderboard standings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbms/facilities-server/internal/models"
)

const leaderboardKey = "sbms:leaderboard"

// NewClient connects to the Redis instance at url (redis://...) and pings it.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// Leaderboard stores one JSON-encoded ranking per requested limit in a
// single Redis hash, so invalidation is one DEL.
type Leaderboard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLeaderboard(rdb *redis.Client, ttl time.Duration) *Leaderboard {
	return &Leaderboard{rdb: rdb, ttl: ttl}
}

// Get returns the cached ranking for limit. ok is false on a miss.
func (c *Leaderboard) Get(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool, error) {
	raw, err := c.rdb.HGet(ctx, leaderboardKey, strconv.Itoa(limit)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read leaderboard cache: %w", err)
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, false, fmt.Errorf("decode leaderboard cache: %w", err)
	}
	return entries, true, nil
}

// Set caches a ranking. The whole hash expires ttl after the first write.
func (c *Leaderboard) Set(ctx context.Context, limit int, entries []models.LeaderboardEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode leaderboard cache: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, leaderboardKey, strconv.Itoa(limit), raw)
	pipe.ExpireNX(ctx, leaderboardKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write leaderboard cache: %w", err)
	}
	return nil
}

// Invalidate drops every cached ranking.
func (c *Leaderboard) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, leaderboardKey).Err(); err != nil {
		return fmt.Errorf("invalidate leaderboard cache: %w", err)
	}
	return nil
}
