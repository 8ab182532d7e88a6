package upload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminal-terrace/video-lead/internal/testutils"
)

func TestNoopLock(t *testing.T) {
	unlock, ok, err := NoopLock{}.TryLock(context.Background(), "any")
	require.NoError(t, err)
	assert.True(t, ok)
	unlock()
}

func TestRedisLock(t *testing.T) {
	client := testutils.SetupTestRedis(t)
	if client == nil {
		t.Skip("Redis not available")
	}
	ctx := context.Background()
	lock := NewRedisLock(client, time.Minute)

	unlock, ok, err := lock.TryLock(ctx, "lock-1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.TryLock(ctx, "lock-1")
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be rejected")

	unlock()

	unlock, ok, err = lock.TryLock(ctx, "lock-1")
	require.NoError(t, err)
	assert.True(t, ok)
	unlock()
}

func TestRedisLockReleaseKeepsForeignToken(t *testing.T) {
	client := testutils.SetupTestRedis(t)
	if client == nil {
		t.Skip("Redis not available")
	}
	ctx := context.Background()
	lock := NewRedisLock(client, time.Minute)

	unlock, ok, err := lock.TryLock(ctx, "lock-2")
	require.NoError(t, err)
	require.True(t, ok)

	// 锁过期后被其他实例占用
	require.NoError(t, client.Set(ctx, lockKey("lock-2"), "someone-else", time.Minute).Err())
	unlock()

	val, err := client.Get(ctx, lockKey("lock-2")).Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}
