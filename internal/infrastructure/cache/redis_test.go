package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parrotfish-oss/flowcost/internal/config"
)

func TestNewRedisCache_Success(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	cfg := config.RedisConfig{URL: "redis://" + s.Addr(), PoolSize: 10}

	cache, err := NewRedisCache(cfg)
	require.NoError(t, err)
	assert.NotNil(t, cache)

	assert.NoError(t, cache.Close())
}

func TestNewRedisCache_WithPassword(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	s.RequireAuth("secret")

	cfg := config.RedisConfig{URL: "redis://" + s.Addr(), Password: "secret", PoolSize: 10}

	cache, err := NewRedisCache(cfg)
	require.NoError(t, err)
	defer cache.Close()
}

func TestNewRedisCache_WithDB(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	cfg := config.RedisConfig{URL: "redis://" + s.Addr(), DB: 1, PoolSize: 10}

	cache, err := NewRedisCache(cfg)
	require.NoError(t, err)
	defer cache.Close()
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	cfg := config.RedisConfig{URL: "invalid://url", PoolSize: 10}

	cache, err := NewRedisCache(cfg)
	assert.Error(t, err)
	assert.Nil(t, cache)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}

func TestNewRedisCache_ConnectionFailure(t *testing.T) {
	cfg := config.RedisConfig{URL: "redis://localhost:9999", PoolSize: 10}

	cache, err := NewRedisCache(cfg)
	assert.Error(t, err)
	assert.Nil(t, cache)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestRedisCache_Set_Get_Success(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	cache := setupCache(t, s)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "test_key", "test_value", 0))

	value, err := cache.Get(ctx, "test_key")
	require.NoError(t, err)
	assert.Equal(t, "test_value", value)
}

func TestRedisCache_Set_WithTTL(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	cache := setupCache(t, s)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "ttl_key", "ttl_value", 1*time.Second))

	value, err := cache.Get(ctx, "ttl_key")
	require.NoError(t, err)
	assert.Equal(t, "ttl_value", value)

	s.FastForward(2 * time.Second)

	_, err = cache.Get(ctx, "ttl_key")
	assert.Error(t, err) // redis.Nil error
}

func TestRedisCache_Get_NonExistentKey(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	cache := setupCache(t, s)
	defer cache.Close()

	_, err := cache.Get(context.Background(), "non_existent")
	assert.Error(t, err) // redis.Nil error
}

func TestRedisCache_Set_OverwriteValue(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	cache := setupCache(t, s)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "key", "value1", 0))
	require.NoError(t, cache.Set(ctx, "key", "value2", 0))

	value, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value2", value)
}

func setupCache(t *testing.T, s *miniredis.Miniredis) *RedisCache {
	cfg := config.RedisConfig{URL: "redis://" + s.Addr(), PoolSize: 10}
	cache, err := NewRedisCache(cfg)
	require.NoError(t, err)
	return cache
}
