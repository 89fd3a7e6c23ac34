package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	rs := NewRedisStore(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rs.Close() })

	return map[string]Store{
		"redis":  rs,
		"memory": NewMemoryStore(time.Minute),
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "k", "v", time.Minute))

			val, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", val)

			require.NoError(t, store.Delete(ctx, "k"))
			_, err = store.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_Incr(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			n, err := store.Incr(ctx, "counter")
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			n, err = store.Incr(ctx, "counter")
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)

			require.NoError(t, store.Expire(ctx, "counter", time.Minute))

			n, err = store.Incr(ctx, "counter")
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)
		})
	}
}

func TestStore_Ping(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Ping(context.Background()))
		})
	}
}

func TestRedisStore_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(RedisConfig{Addr: mr.Addr()})
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
