package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_cart/menu/internal/kv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ kv.Store = (*RedisStore)(nil)

// setupTestRedis starts miniredis and returns a store pointing at it
func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, ttl), mr
}

func TestGet_Success(t *testing.T) {
	store, mr := setupTestRedis(t, 0)

	require.NoError(t, mr.Set(cacheKey("table-terminal"), `{"version":1}`))

	got, err := store.Get(context.Background(), "table-terminal")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got))
}

func TestGet_NotFound(t *testing.T) {
	store, _ := setupTestRedis(t, 0)

	got, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, kv.ErrNotFound)
	assert.Nil(t, got)
}

func TestGet_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := store.Get(context.Background(), "default")
	require.Error(t, err)
	assert.NotErrorIs(t, err, kv.ErrNotFound)
	assert.ErrorContains(t, err, "redis get failed")
}

func TestPut_NoTTL(t *testing.T) {
	store, mr := setupTestRedis(t, 0)

	require.NoError(t, store.Put(context.Background(), "default", []byte(`{"lines":[]}`)))

	stored, err := mr.Get(cacheKey("default"))
	require.NoError(t, err)
	assert.Equal(t, `{"lines":[]}`, stored)
	assert.Equal(t, time.Duration(0), mr.TTL(cacheKey("default")))
}

func TestPut_WithTTL(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)

	require.NoError(t, store.Put(context.Background(), "default", []byte("{}")))

	ttl := mr.TTL(cacheKey("default"))
	assert.GreaterOrEqual(t, ttl, time.Hour)
	assert.Less(t, ttl, time.Hour+5*time.Minute)

	mr.FastForward(2 * time.Hour)
	_, err := store.Get(context.Background(), "default")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestPut_Overwrites(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "default", []byte("first")))
	require.NoError(t, store.Put(ctx, "default", []byte("second")))

	got, err := store.Get(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestDelete(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "default", []byte("{}")))
	require.NoError(t, store.Delete(ctx, "default"))

	assert.False(t, mr.Exists(cacheKey("default")))
}

func TestCacheKey_Format(t *testing.T) {
	assert.Equal(t, "cart:default", cacheKey("default"))
	assert.Equal(t, "cart:bar-2", cacheKey("bar-2"))
}
