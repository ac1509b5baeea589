package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DocumentCache is a read-side cache for registered documents. Documents are
// immutable once registered, so entries never need invalidation, only expiry.
type DocumentCache interface {
	Get(ctx context.Context, id int64) (Document, bool)
	Set(ctx context.Context, doc Document)
}

func cacheKey(id int64) string {
	return fmt.Sprintf("doc:%d", id)
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and returns a DocumentCache backed by it.
func NewRedisCache(addr string, ttl time.Duration) (DocumentCache, error) {
	opt := &redis.Options{
		Addr: addr,
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisCache{client: client, ttl: ttl}, nil
}

// Get treats every Redis failure as a miss so the store stays the source of
// truth when the cache is unreachable.
func (c *redisCache) Get(ctx context.Context, id int64) (Document, bool) {
	payload, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		return Document{}, false
	}
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Document{}, false
	}
	return doc, true
}

func (c *redisCache) Set(ctx context.Context, doc Document) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(doc.ID), payload, c.ttl)
}

type memoryCacheEntry struct {
	doc       Document
	expiresAt time.Time
}

type memoryCache struct {
	mu         sync.RWMutex
	entries    map[int64]memoryCacheEntry
	ttl        time.Duration
	maxEntries int
}

// NewMemoryCache returns an in-process DocumentCache with the given TTL.
// maxEntries bounds memory use; when full, new entries evict an expired or
// arbitrary old one.
func NewMemoryCache(ttl time.Duration, maxEntries int) DocumentCache {
	mc := &memoryCache{
		entries:    make(map[int64]memoryCacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
	go mc.cleanupExpired()
	return mc
}

func (c *memoryCache) Get(_ context.Context, id int64) (Document, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return Document{}, false
	}
	return cloneDocument(entry.doc), true
}

func (c *memoryCache) Set(_ context.Context, doc Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictOne()
	}
	c.entries[doc.ID] = memoryCacheEntry{
		doc:       cloneDocument(doc),
		expiresAt: time.Now().Add(c.ttl),
	}
}

// evictOne drops an expired entry if one exists, otherwise an arbitrary one.
// Caller must hold the write lock.
func (c *memoryCache) evictOne() {
	now := time.Now()
	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
			return
		}
	}
	for id := range c.entries {
		delete(c.entries, id)
		return
	}
}

func (c *memoryCache) cleanupExpired() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for id, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, id)
			}
		}
		c.mu.Unlock()
	}
}

// CachedStore wraps a DocumentStore with a read-through DocumentCache.
// Writes go straight to the underlying store; the cache is only filled from
// committed reads and successful creates, so it never holds a document the
// store does not.
type CachedStore struct {
	store DocumentStore
	cache DocumentCache
}

// NewCachedStore wraps store with cache.
func NewCachedStore(store DocumentStore, cache DocumentCache) *CachedStore {
	return &CachedStore{store: store, cache: cache}
}

func (s *CachedStore) Create(ctx context.Context, doc Document) (Document, error) {
	created, err := s.store.Create(ctx, doc)
	if err != nil {
		return Document{}, err
	}
	s.cache.Set(ctx, created)
	return created, nil
}

func (s *CachedStore) GetByID(ctx context.Context, id int64) (Document, error) {
	if doc, ok := s.cache.Get(ctx, id); ok {
		return doc, nil
	}
	doc, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	s.cache.Set(ctx, doc)
	return doc, nil
}

func (s *CachedStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *CachedStore) Close() error {
	return s.store.Close()
}

var _ DocumentStore = (*CachedStore)(nil)
