package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryCache 测试内存缓存的基本功能
func TestMemoryCache(t *testing.T) {
	config := Config{
		Type:            "memory",
		DefaultTTL:      time.Second * 2,
		CleanupInterval: time.Second,
	}
	c, err := NewMemoryCache(config)
	require.NoError(t, err)
	require.NotNil(t, c)

	// 测试Set和Get
	err = c.Set("key1", "value1", 0) // 使用默认TTL
	assert.NoError(t, err)

	val, found, err := c.Get("key1")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value1", val)

	// 测试不存在的键
	val, found, err = c.Get("non-existent")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	// 测试过期
	err = c.Set("expire-soon", "temp-value", time.Millisecond*500)
	assert.NoError(t, err)

	time.Sleep(time.Second)

	val, found, err = c.Get("expire-soon")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	// 测试删除
	err = c.Set("to-delete", "delete-me", 0)
	assert.NoError(t, err)

	err = c.Delete("to-delete")
	assert.NoError(t, err)

	_, found, err = c.Get("to-delete")
	assert.NoError(t, err)
	assert.False(t, found)

	// 测试清空
	err = c.Set("key2", "value2", 0)
	assert.NoError(t, err)

	err = c.Clear()
	assert.NoError(t, err)

	_, found, err = c.Get("key2")
	assert.NoError(t, err)
	assert.False(t, found)
}

// TestRedisCache 测试Redis缓存，使用miniredis模拟服务器
func TestRedisCache(t *testing.T) {
	server := miniredis.RunT(t)

	config := Config{
		Type:       "redis",
		RedisAddr:  server.Addr(),
		DefaultTTL: time.Minute,
	}
	c, err := NewRedisCache(config)
	require.NoError(t, err)

	// 基本读写
	require.NoError(t, c.Set("key1", "value1", time.Minute))

	val, found, err := c.Get("key1")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value1", val)

	// 不存在的键
	_, found, err = c.Get("missing")
	assert.NoError(t, err)
	assert.False(t, found)

	// TTL过期（miniredis需要手动推进时间）
	require.NoError(t, c.Set("expiring", "value", time.Second))
	server.FastForward(2 * time.Second)

	_, found, err = c.Get("expiring")
	assert.NoError(t, err)
	assert.False(t, found)

	// 删除
	require.NoError(t, c.Set("to-delete", "value", time.Minute))
	require.NoError(t, c.Delete("to-delete"))
	_, found, _ = c.Get("to-delete")
	assert.False(t, found)
}

// TestNewCacheFactory 测试缓存工厂
func TestNewCacheFactory(t *testing.T) {
	t.Run("memory cache by default config", func(t *testing.T) {
		c, err := NewCache(DefaultConfig())
		assert.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := NewCache(Config{Type: "memcached"})
		assert.Error(t, err)
	})
}

// TestCacheKeys 测试缓存键生成
func TestCacheKeys(t *testing.T) {
	t.Run("key composition", func(t *testing.T) {
		key := GenerateCacheKey("analysis", "abc123")
		assert.Equal(t, "analysis:abc123", key)
	})

	t.Run("content hash is stable", func(t *testing.T) {
		h1 := ContentHash([]byte("same bytes"))
		h2 := ContentHash([]byte("same bytes"))
		h3 := ContentHash([]byte("different bytes"))

		assert.Equal(t, h1, h2)
		assert.NotEqual(t, h1, h3)
		assert.Len(t, h1, 40) // sha1十六进制
	})
}
