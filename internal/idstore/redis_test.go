package idstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore instance
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, "session-1")

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestLoad_NoCartID(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	id, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSaveThenLoad(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "cart-abc"))

	got, err := mr.Get("cart-id:session-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-abc", got)

	id, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cart-abc", id)
}

func TestClear_RemovesKey(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "cart-abc"))
	require.NoError(t, store.Clear(ctx))

	assert.False(t, mr.Exists("cart-id:session-1"))

	id, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestStores_IsolatedBySession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	a := NewRedisStore(client, "session-a")
	b := NewRedisStore(client, "session-b")

	require.NoError(t, a.Save(ctx, "cart-a"))
	require.NoError(t, b.Save(ctx, "cart-b"))

	idA, err := a.Load(ctx)
	require.NoError(t, err)
	idB, err := b.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, "cart-a", idA)
	assert.Equal(t, "cart-b", idB)
}
