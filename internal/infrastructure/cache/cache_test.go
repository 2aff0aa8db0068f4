package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/repository"
	"go.uber.org/zap"
)

const testKey = "https://chroniclingamerica.loc.gov/newspapers.json?format=json"

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, "test:", 24*time.Hour, zap.NewNop()), mr
}

func storeContract(t *testing.T, store repository.CacheRepository) {
	ctx := context.Background()

	missing, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Nil(t, missing)

	captured := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(ctx, testKey, &entity.CacheEntry{
		Body:        []byte(`{"newspapers":[]}`),
		ContentType: "application/json",
		CapturedAt:  captured,
	}))

	got, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"newspapers":[]}`, string(got.Body))
	assert.Equal(t, "application/json", got.ContentType)
	assert.True(t, captured.Equal(got.CapturedAt))

	require.NoError(t, store.Set(ctx, testKey, &entity.CacheEntry{
		Body:        []byte(`{"newspapers":[1]}`),
		ContentType: "application/json",
		CapturedAt:  captured.Add(time.Hour),
	}))
	got, err = store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, `{"newspapers":[1]}`, string(got.Body))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	storeContract(t, store)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, testKey, &entity.CacheEntry{Body: []byte("x"), CapturedAt: time.Now()})
			_, _ = store.Get(ctx, testKey)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.Len())
}

func TestRedisStore(t *testing.T) {
	store, _ := newTestRedisStore(t)
	storeContract(t, store)
}

func TestRedisStore_KeyPrefixAndRetention(t *testing.T) {
	store, mr := newTestRedisStore(t)

	require.NoError(t, store.Set(context.Background(), testKey, &entity.CacheEntry{Body: []byte("{}"), CapturedAt: time.Now()}))

	assert.True(t, mr.Exists("test:"+testKey))
	assert.Equal(t, 24*time.Hour, mr.TTL("test:"+testKey))

	mr.FastForward(25 * time.Hour)
	got, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_UndecodableEntryIsAMiss(t *testing.T) {
	store, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set("test:"+testKey, "not-json"))

	got, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), testKey)
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisOptions{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()
}
