package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCache_BasicOperations 测试基本操作
func TestCache_BasicOperations(t *testing.T) {
	cache := New[string, int](Config{
		Name:    "test",
		MaxSize: 100,
		TTL:     time.Minute,
	})

	// 测试 Set 和 Get
	cache.Set("key1", 100)
	value, found := cache.Get("key1")
	assert.True(t, found)
	assert.Equal(t, 100, value)

	// 测试不存在的 key
	_, found = cache.Get("nonexistent")
	assert.False(t, found)

	// 测试 Delete
	deleted := cache.Delete("key1")
	assert.True(t, deleted)

	_, found = cache.Get("key1")
	assert.False(t, found)

	// 测试重复删除
	deleted = cache.Delete("key1")
	assert.False(t, deleted)
}

// TestCache_Update 测试更新操作
func TestCache_Update(t *testing.T) {
	cache := New[int64, string](Config{
		Name:    "test",
		MaxSize: 100,
	})

	cache.Set(1, "first")
	value, found := cache.Get(1)
	require.True(t, found)
	assert.Equal(t, "first", value)

	// 更新值
	cache.Set(1, "second")
	value, found = cache.Get(1)
	require.True(t, found)
	assert.Equal(t, "second", value)

	// Size 应该还是 1
	assert.Equal(t, 1, cache.Size())
}

// TestCache_LRUEviction 测试 LRU 驱逐
func TestCache_LRUEviction(t *testing.T) {
	cache := New[int, string](Config{
		Name:    "test",
		MaxSize: 3,
	})

	cache.Set(1, "one")
	cache.Set(2, "two")
	cache.Set(3, "three")
	assert.Equal(t, 3, cache.Size())

	// 访问 key=1，使其成为最近使用的
	_, found := cache.Get(1)
	assert.True(t, found)

	// 添加第 4 个条目，应该驱逐 key=2（最久未使用的）
	cache.Set(4, "four")
	assert.Equal(t, 3, cache.Size())

	_, found = cache.Get(2)
	assert.False(t, found)

	for _, k := range []int{1, 3, 4} {
		_, found = cache.Get(k)
		assert.True(t, found, "key=%d", k)
	}

	stats := cache.GetStats()
	assert.Equal(t, int64(1), stats.Evictions)
}

// TestCache_TTLExpiration 测试 TTL 过期
func TestCache_TTLExpiration(t *testing.T) {
	cache := New[string, int](Config{
		Name:    "test",
		MaxSize: 100,
		TTL:     50 * time.Millisecond,
	})

	cache.Set("key1", 100)

	value, found := cache.Get("key1")
	assert.True(t, found)
	assert.Equal(t, 100, value)

	// 等待过期
	time.Sleep(80 * time.Millisecond)

	_, found = cache.Get("key1")
	assert.False(t, found)
}

// TestCache_Clear 测试清空
func TestCache_Clear(t *testing.T) {
	cache := New[string, int](Config{Name: "test", MaxSize: 100})

	cache.Set("a", 1)
	cache.Set("b", 2)
	require.Equal(t, 2, cache.Size())

	cache.Clear()
	assert.Equal(t, 0, cache.Size())

	_, found := cache.Get("a")
	assert.False(t, found)
}

// TestCache_Stats 测试统计
func TestCache_Stats(t *testing.T) {
	cache := New[string, int](Config{Name: "test", MaxSize: 100})

	cache.Set("a", 1)
	cache.Get("a")
	cache.Get("missing")

	stats := cache.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}
