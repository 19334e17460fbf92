package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisClient(t *testing.T) {
	ctx := context.Background()

	t.Run("get set delete", func(t *testing.T) {
		client, mr := newTestRedis(t)

		_, err := client.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrCacheMiss)

		require.NoError(t, client.Set(ctx, "emb:1", []byte("vector"), time.Minute))
		assert.True(t, mr.Exists("chatbot:emb:1"))

		got, err := client.Get(ctx, "emb:1")
		require.NoError(t, err)
		assert.Equal(t, []byte("vector"), got)

		require.NoError(t, client.Delete(ctx, "emb:1"))
		_, err = client.Get(ctx, "emb:1")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("ttl expiry", func(t *testing.T) {
		client, mr := newTestRedis(t)
		require.NoError(t, client.Set(ctx, "k", []byte("v"), time.Second))

		mr.FastForward(2 * time.Second)
		_, err := client.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("delete by prefix", func(t *testing.T) {
		client, _ := newTestRedis(t)
		require.NoError(t, client.Set(ctx, "variants:a", []byte("1"), 0))
		require.NoError(t, client.Set(ctx, "variants:b", []byte("2"), 0))
		require.NoError(t, client.Set(ctx, "emb:a", []byte("3"), 0))

		require.NoError(t, client.DeleteByPrefix(ctx, "variants:"))

		_, err := client.Get(ctx, "variants:a")
		assert.ErrorIs(t, err, ErrCacheMiss)
		_, err = client.Get(ctx, "emb:a")
		assert.NoError(t, err)
	})

	t.Run("ping fails when server is gone", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedisClient(RedisConfig{Addr: addr})
		assert.Error(t, err)
	})
}

func TestMemoryClient(t *testing.T) {
	ctx := context.Background()

	t.Run("expires entries", func(t *testing.T) {
		c, err := NewMemoryClient(10)
		require.NoError(t, err)
		now := time.Now()
		c.now = func() time.Time { return now }

		require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
		got, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)

		now = now.Add(2 * time.Minute)
		_, err = c.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrCacheMiss)
		assert.Zero(t, c.Len())
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		c, err := NewMemoryClient(10)
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
		c.now = func() time.Time { return time.Now().Add(24 * time.Hour) }

		_, err = c.Get(ctx, "k")
		assert.NoError(t, err)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c, err := NewMemoryClient(2)
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
		require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
		_, _ = c.Get(ctx, "a")
		require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

		_, err = c.Get(ctx, "b")
		assert.ErrorIs(t, err, ErrCacheMiss)
		_, err = c.Get(ctx, "a")
		assert.NoError(t, err)
	})

	t.Run("delete by prefix", func(t *testing.T) {
		c, err := NewMemoryClient(10)
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, "emb:1", []byte("1"), 0))
		require.NoError(t, c.Set(ctx, "variants:1", []byte("2"), 0))

		require.NoError(t, c.DeleteByPrefix(ctx, "emb:"))
		assert.Equal(t, 1, c.Len())
	})
}

func TestKey(t *testing.T) {
	assert.Equal(t, "emb:model:abc", Key("emb", "model", "abc"))
}
