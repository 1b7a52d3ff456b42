// Package cache 提供泛型 LRU+TTL 缓存。
//
// 元数据注册表用它缓存模型元信息、唯一约束与中间表描述符的查询结果。
//
// 设计原则：
// 1. 简洁 - 只包含必需的功能
// 2. 类型安全 - 使用泛型提供编译时类型检查
// 3. 容量管理 - 防止 OOM，自动 LRU 驱逐
// 4. 并发安全 - 使用互斥锁保护
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache 通用泛型缓存
//
// 核心特性：
// - LRU 驱逐：超过容量时自动删除最久未使用的条目
// - TTL 过期：基于访问时间的过期策略
// - 并发安全
//
// 使用示例：
//
//	c := cache.New[string, *ModelMeta](cache.Config{
//	    Name:    "model_meta",
//	    MaxSize: 256,
//	    TTL:     10 * time.Minute,
//	})
type Cache[K comparable, V any] struct {
	name   string
	config Config

	items   map[K]*cacheEntry[K, V]
	lruList *list.List

	mu    sync.Mutex
	stats Stats
}

type cacheEntry[K comparable, V any] struct {
	key        K
	value      V
	accessedAt time.Time
	lruElement *list.Element
}

// Config 缓存配置
type Config struct {
	// Name 缓存名称（用于日志和统计）
	Name string

	// MaxSize 最大缓存条目数，0 表示无限制（不推荐）
	MaxSize int

	// TTL 缓存过期时间，基于访问时间；0 表示永不过期
	TTL time.Duration
}

// Stats 缓存统计信息
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// New 创建新的缓存实例
func New[K comparable, V any](config Config) *Cache[K, V] {
	if config.Name == "" {
		config.Name = "unnamed"
	}
	return &Cache[K, V]{
		name:    config.Name,
		config:  config,
		items:   make(map[K]*cacheEntry[K, V]),
		lruList: list.New(),
	}
}

// Get 获取缓存值，返回值与是否命中（且未过期）。
//
// Get 会更新访问时间与 LRU 位置，因此在写锁下完成。
func (c *Cache[K, V]) Get(key K) (value V, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if !exists {
		c.stats.Misses++
		return value, false
	}

	if c.isExpired(entry) {
		c.removeEntryUnsafe(entry)
		c.stats.Misses++
		return value, false
	}

	entry.accessedAt = time.Now()
	c.lruList.MoveToFront(entry.lruElement)
	c.stats.Hits++
	return entry.value, true
}

// Set 设置缓存值
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if entry, exists := c.items[key]; exists {
		entry.value = value
		entry.accessedAt = now
		c.lruList.MoveToFront(entry.lruElement)
		return
	}

	if c.config.MaxSize > 0 && len(c.items) >= c.config.MaxSize {
		c.evictOldestUnsafe()
	}

	entry := &cacheEntry[K, V]{
		key:        key,
		value:      value,
		accessedAt: now,
	}
	entry.lruElement = c.lruList.PushFront(entry)
	c.items[key] = entry
	c.stats.Size = len(c.items)
}

// Delete 删除缓存条目，返回是否存在并被删除
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if !exists {
		return false
	}
	c.removeEntryUnsafe(entry)
	return true
}

// Clear 清空所有缓存
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*cacheEntry[K, V])
	c.lruList = list.New()
	c.stats.Size = 0
}

// Size 获取当前缓存条目数
func (c *Cache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// GetStats 获取统计信息（副本）
func (c *Cache[K, V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.items)
	return stats
}

// isExpired 检查条目是否过期（需要持锁调用）
func (c *Cache[K, V]) isExpired(entry *cacheEntry[K, V]) bool {
	if c.config.TTL <= 0 {
		return false
	}
	return time.Since(entry.accessedAt) >= c.config.TTL
}

// evictOldestUnsafe 驱逐最久未使用的条目（需要持锁调用）
func (c *Cache[K, V]) evictOldestUnsafe() {
	oldest := c.lruList.Back()
	if oldest == nil {
		return
	}
	c.removeEntryUnsafe(oldest.Value.(*cacheEntry[K, V]))
	c.stats.Evictions++
}

// removeEntryUnsafe 删除条目（需要持锁调用）
func (c *Cache[K, V]) removeEntryUnsafe(entry *cacheEntry[K, V]) {
	if entry.lruElement != nil {
		c.lruList.Remove(entry.lruElement)
	}
	delete(c.items, entry.key)
	c.stats.Size = len(c.items)
}
