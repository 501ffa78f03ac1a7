// Package redis stores configuration documents in Redis, fronted by a
// short-lived in-memory cache that other processes sharing the same Redis
// invalidate over pub/sub.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/pscheid92/themebridge/internal/domain"
)

const (
	keyPrefix           = "themebridge:config:"
	invalidationChannel = "themebridge:config:invalidate"
)

// ConfigStore implements domain.ConfigStore.
type ConfigStore struct {
	rdb   *goredis.Client
	mem   *memoryCache
	group singleflight.Group
}

var _ domain.ConfigStore = (*ConfigStore)(nil)

func NewConfigStore(rdb *goredis.Client, memCacheTTL time.Duration) *ConfigStore {
	return &ConfigStore{rdb: rdb, mem: newMemoryCache(memCacheTTL)}
}

func (s *ConfigStore) Load(ctx context.Context, name string) ([]byte, error) {
	if data, ok := s.mem.get(name); ok {
		return data, nil
	}

	// Concurrent misses for one name share a single Redis read.
	v, err, _ := s.group.Do(name, func() (any, error) {
		data, err := s.rdb.Get(ctx, configKey(name)).Bytes()
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", name, err)
		}
		s.mem.set(name, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Store writes the document and tells every other subscriber to drop its
// cached copy.
func (s *ConfigStore) Store(ctx context.Context, name string, data []byte) error {
	if err := s.rdb.Set(ctx, configKey(name), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store config %s: %w", name, err)
	}
	s.mem.set(name, data)

	if err := s.rdb.Publish(ctx, invalidationChannel, name).Err(); err != nil {
		slog.Warn("Failed to publish config invalidation", "config", name, "error", err)
	}
	return nil
}

// Subscribe evicts cached documents on invalidation messages until ctx is
// done. Messages published by this store also evict its own entry, which
// only costs one extra read.
func (s *ConfigStore) Subscribe(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, invalidationChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case msg := <-ch:
			if msg == nil {
				return
			}
			if msg.Payload == "" {
				slog.Warn("Empty config invalidation message")
				continue
			}
			s.mem.invalidate(msg.Payload)
			slog.Debug("Config cache invalidated via pub/sub", "config", msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

// StartEvictionTimer periodically drops expired cache entries. The returned
// function stops it.
func (s *ConfigStore) StartEvictionTimer(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if evicted := s.mem.evictExpired(); evicted > 0 {
					slog.Debug("Evicted expired config cache entries", "count", evicted, "remaining", s.mem.size())
				}
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}

func configKey(name string) string {
	return keyPrefix + name
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryCacheEntry struct {
	data      []byte
	expiresAt time.Time
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	return &memoryCache{entries: make(map[string]memoryCacheEntry), ttl: ttl, now: time.Now}
}

func (c *memoryCache) get(name string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[name]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (c *memoryCache) set(name string, data []byte) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = memoryCacheEntry{data: data, expiresAt: c.now().Add(c.ttl)}
}

func (c *memoryCache) invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

func (c *memoryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *memoryCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for name, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, name)
			evicted++
		}
	}
	return evicted
}
