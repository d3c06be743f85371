package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/autobuy-backend/pkg/logging"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClientFromRedis(rdb, logging.NewNoOpLogger()), s
}

func TestNewRedisClient_ConnectsToServer(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), logging.NewNoOpLogger(), RedisConfig{
		URL:                "redis://" + s.Addr() + "/0",
		ConnectionSettings: DefaultConnectionSettings(),
	})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), logging.NewNoOpLogger(), RedisConfig{URL: "not a url"})

	assert.ErrorContains(t, err, "failed to parse Redis URL")
}

func TestNewLock_RejectsNonPositiveTTL(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.NewLock("key", 0)

	assert.Error(t, err)
}

func TestLock_AcquireRelease(t *testing.T) {
	client, s := newTestClient(t)
	ctx := context.Background()

	first, err := client.NewLock("autobuy:lock:task:1", time.Minute)
	require.NoError(t, err)
	second, err := client.NewLock("autobuy:lock:task:1", time.Minute)
	require.NoError(t, err)

	acquired, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.True(t, s.Exists("autobuy:lock:task:1"))

	acquired, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, acquired)

	assert.ErrorIs(t, second.Release(ctx), ErrLockNotAcquired)
	assert.True(t, s.Exists("autobuy:lock:task:1"))

	require.NoError(t, first.Release(ctx))
	assert.False(t, s.Exists("autobuy:lock:task:1"))

	acquired, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestLock_ExpiresAfterTTL(t *testing.T) {
	client, s := newTestClient(t)
	ctx := context.Background()

	first, err := client.NewLock("autobuy:lock:subscriptions:1", 30*time.Second)
	require.NoError(t, err)
	acquired, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	s.FastForward(31 * time.Second)

	second, err := client.NewLock("autobuy:lock:subscriptions:1", 30*time.Second)
	require.NoError(t, err)
	acquired, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestExecutionLocker_TryLock(t *testing.T) {
	client, s := newTestClient(t)
	ctx := context.Background()
	locker := NewExecutionLocker(client, "", time.Minute)

	unlock, acquired, err := locker.TryLock(ctx, "task:abc")
	require.NoError(t, err)
	require.True(t, acquired)
	require.NotNil(t, unlock)
	assert.True(t, s.Exists(DefaultLockPrefix+"task:abc"))

	again, acquired, err := locker.TryLock(ctx, "task:abc")
	require.NoError(t, err)
	assert.False(t, acquired)
	assert.Nil(t, again)

	require.NoError(t, unlock(ctx))
	assert.False(t, s.Exists(DefaultLockPrefix+"task:abc"))
}

func TestExecutionLocker_ServerDown_ReturnsError(t *testing.T) {
	client, s := newTestClient(t)
	s.Close()

	_, acquired, err := NewExecutionLocker(client, "", time.Minute).TryLock(context.Background(), "task:abc")

	assert.Error(t, err)
	assert.False(t, acquired)
}

func TestLock_Refresh(t *testing.T) {
	client, s := newTestClient(t)
	ctx := context.Background()

	lock, err := client.NewLock("autobuy:lock:task:2", 30*time.Second)
	require.NoError(t, err)
	acquired, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	s.FastForward(20 * time.Second)
	require.NoError(t, lock.Refresh(ctx))
	assert.Equal(t, 30*time.Second, s.TTL("autobuy:lock:task:2"))

	other, err := client.NewLock("autobuy:lock:task:2", 30*time.Second)
	require.NoError(t, err)
	assert.ErrorIs(t, other.Refresh(ctx), ErrLockNotAcquired)

	s.FastForward(31 * time.Second)
	assert.ErrorIs(t, lock.Refresh(ctx), ErrLockNotAcquired)
}

func TestExecutionLocker_RenewsWhileHeld(t *testing.T) {
	client, s := newTestClient(t)
	ctx := context.Background()
	ttl := 300 * time.Millisecond
	key := DefaultLockPrefix + "subscription:abc"

	replicaA := NewExecutionLocker(client, "", ttl)
	replicaB := NewExecutionLocker(client, "", ttl)

	unlock, acquired, err := replicaA.TryLock(ctx, "subscription:abc")
	require.NoError(t, err)
	require.True(t, acquired)

	// Three steps of 200ms add up to twice the TTL. Renewal keeps the key alive throughout.
	for i := 0; i < 3; i++ {
		s.FastForward(200 * time.Millisecond)
		require.True(t, s.Exists(key), "lease expired while held")
		require.Eventually(t, func() bool { return s.TTL(key) == ttl }, 2*time.Second, 10*time.Millisecond)

		_, acquired, err := replicaB.TryLock(ctx, "subscription:abc")
		require.NoError(t, err)
		assert.False(t, acquired)
	}

	require.NoError(t, unlock(ctx))
	assert.False(t, s.Exists(key))
	assert.ErrorIs(t, unlock(ctx), ErrLockNotAcquired)

	unlockB, acquired, err := replicaB.TryLock(ctx, "subscription:abc")
	require.NoError(t, err)
	require.True(t, acquired)
	require.NoError(t, unlockB(ctx))
}
