package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "http://not-redis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis URL")
}

func TestLeaderboard_UnreachableServerReportsErrors(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	c := NewLeaderboard(rdb, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, 10)
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, 10, nil))
	assert.Error(t, c.Invalidate(ctx))
}
