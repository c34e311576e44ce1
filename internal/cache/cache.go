// Package cache provides a two-tier cache: an in-process L1 map and an
// optional Redis L2 shared between instances. Values are stored as JSON.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"placement/internal/config"
	"placement/internal/errors"

	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 3 * time.Second

// Cache is a TTL cache with L1 memory and optional L2 Redis.
type Cache struct {
	l1         sync.Map      // key → *entry
	rdb        *redis.Client // nil if Redis unavailable
	ttl        time.Duration
	maxEntries int
	prefix     string
	logger     *errors.Logger
	now        func() time.Time

	hits   atomic.Int64
	misses atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Stats reports hit and miss counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Redis  bool  `json:"redis"`
}

// New creates a cache from config. An empty or unreachable Redis URL leaves
// L2 disabled; the cache still works in-process.
func New(cfg config.CacheConfig, logger *errors.Logger) *Cache {
	c := &Cache{
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		prefix:     cfg.KeyPrefix,
		logger:     logger,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("Invalid redis URL, L2 cache disabled", "error", err.Error())
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Warn("Redis unreachable, L2 cache disabled", "addr", opts.Addr, "error", err.Error())
				_ = rdb.Close()
			} else {
				c.rdb = rdb
				logger.Info("L2 redis cache connected", "addr", opts.Addr)
			}
		}
	}

	logger.Debug("Cache initialized",
		"ttl", c.ttl,
		"max_entries", c.maxEntries,
		"redis", c.rdb != nil)

	go c.cleanupLoop(cleanupInterval(c.ttl))
	return c
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > 5*time.Minute {
		return 5 * time.Minute
	}
	return ttl
}

// Get loads key into dst. It tries L1, then L2; an L2 hit refills L1.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	if val, ok := c.l1.Load(key); ok {
		e := val.(*entry)
		if c.now().Before(e.expiresAt) && json.Unmarshal(e.data, dst) == nil {
			c.hits.Add(1)
			return true
		}
		c.l1.Delete(key) // expired or corrupt
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
		if err == nil && json.Unmarshal(data, dst) == nil {
			c.hits.Add(1)
			c.l1.Store(key, &entry{data: data, expiresAt: c.now().Add(c.ttl)})
			return true
		}
		if err != nil && err != redis.Nil {
			c.logger.Debug("L2 cache get failed", "key", key, "error", err.Error())
		}
	}

	c.misses.Add(1)
	return false
}

// Set stores value under key in both tiers.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Debug("Cache value not serializable", "key", key, "error", err.Error())
		return
	}

	c.evictIfNeeded()
	c.l1.Store(key, &entry{data: data, expiresAt: c.now().Add(c.ttl)})

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
			c.logger.Debug("L2 cache set failed", "key", key, "error", err.Error())
		}
	}
}

// Invalidate removes keys from both tiers.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	redisKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		c.l1.Delete(k)
		redisKeys = append(redisKeys, c.prefix+k)
	}
	if c.rdb != nil {
		if err := c.rdb.Del(ctx, redisKeys...).Err(); err != nil {
			c.logger.Warn("L2 cache invalidation failed", "keys", keys, "error", err.Error())
		}
	}
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Redis: c.rdb != nil}
}

// Close stops the cleanup loop and the Redis client.
func (c *Cache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// evictIfNeeded removes entries when L1 reaches maxEntries: expired ones
// first, then those closest to expiry.
func (c *Cache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count < c.maxEntries {
		return
	}

	now := c.now()
	c.l1.Range(func(key, val any) bool {
		if e, ok := val.(*entry); ok && now.After(e.expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return count >= c.maxEntries
	})

	for count >= c.maxEntries {
		var oldestKey any
		var oldestAt time.Time
		c.l1.Range(func(key, val any) bool {
			if e, ok := val.(*entry); ok && (oldestKey == nil || e.expiresAt.Before(oldestAt)) {
				oldestKey, oldestAt = key, e.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			break
		}
		c.l1.Delete(oldestKey)
		count--
	}
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := c.now()
			c.l1.Range(func(key, val any) bool {
				if e, ok := val.(*entry); ok && now.After(e.expiresAt) {
					c.l1.Delete(key)
				}
				return true
			})
		}
	}
}
