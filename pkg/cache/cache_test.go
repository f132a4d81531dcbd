package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

func TestRedisCache_SetGet(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(rdb, "se")
	ctx := context.Background()

	mock.ExpectSet("se:run:1", []byte(`{"id":"1","value":2.5}`), time.Hour).SetVal("OK")
	mock.ExpectGet("se:run:1").SetVal(`{"id":"1","value":2.5}`)
	mock.ExpectGet("se:run:2").RedisNil()

	require.NoError(t, c.Set(ctx, "run:1", payload{ID: "1", Value: 2.5}, time.Hour))

	var got payload
	require.NoError(t, c.Get(ctx, "run:1", &got))
	assert.Equal(t, payload{ID: "1", Value: 2.5}, got)

	assert.ErrorIs(t, c.Get(ctx, "run:2", &got), ErrCacheMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_StringRoundTrip(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(rdb, "se")
	ctx := context.Background()

	mock.ExpectSet("se:run:latest", []byte("abc"), time.Duration(0)).SetVal("OK")
	mock.ExpectGet("se:run:latest").SetVal("abc")

	require.NoError(t, c.Set(ctx, "run:latest", "abc", 0))
	var id string
	require.NoError(t, c.Get(ctx, "run:latest", &id))
	assert.Equal(t, "abc", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_Lock(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(rdb, "se")
	ctx := context.Background()

	mock.ExpectSetNX("se:run:lock", "locked", time.Minute).SetVal(true)
	mock.ExpectSetNX("se:run:lock", "locked", time.Minute).SetVal(false)
	mock.ExpectDel("se:run:lock").SetVal(1)

	ok, err := c.TryLock(ctx, "run:lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryLock(ctx, "run:lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Unlock(ctx, "run:lock"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_DeleteByPattern(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(rdb, "se")

	mock.ExpectScan(0, "se:run:*", 100).SetVal([]string{"se:run:1", "se:run:2"}, 7)
	mock.ExpectDel("se:run:1", "se:run:2").SetVal(2)
	mock.ExpectScan(7, "se:run:*", 100).SetVal([]string{}, 0)

	require.NoError(t, c.DeleteByPattern(context.Background(), "run:*"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryCache_SetGetStruct(t *testing.T) {
	c := NewMemoryCache(WithMemoryCleanup(0))
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{ID: "x", Value: 1}, 0))
	var got payload
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "x", got.ID)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(WithMemoryCleanup(0))
	defer c.Close()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	now = now.Add(2 * time.Minute)
	var s string
	assert.ErrorIs(t, c.Get(ctx, "k", &s), ErrCacheMiss)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0))
	defer c.Close()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { now = now.Add(time.Second); return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	var s string
	require.NoError(t, c.Get(ctx, "a", &s))
	require.NoError(t, c.Set(ctx, "c", "3", 0))

	assert.NoError(t, c.Get(ctx, "a", &s))
	assert.ErrorIs(t, c.Get(ctx, "b", &s), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "c", &s))
}

func TestMemoryCache_LockAndPattern(t *testing.T) {
	c := NewMemoryCache(WithMemoryCleanup(0))
	defer c.Close()
	ctx := context.Background()

	ok, err := c.TryLock(ctx, "run:lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = c.TryLock(ctx, "run:lock", time.Minute)
	assert.False(t, ok)
	require.NoError(t, c.Unlock(ctx, "run:lock"))
	ok, _ = c.TryLock(ctx, "run:lock", time.Minute)
	assert.True(t, ok)

	require.NoError(t, c.Set(ctx, "run:1", "a", 0))
	require.NoError(t, c.Set(ctx, "other", "b", 0))
	require.NoError(t, c.DeleteByPattern(ctx, "run:*"))
	assert.Equal(t, 1, c.Len())
}
