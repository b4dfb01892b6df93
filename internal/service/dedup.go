package service

import (
	"context"
	"sync"
	"time"

	"articly/pkg/logger"
	"articly/pkg/redis"
)

// DedupCache provides set-if-absent-with-expiry semantics for read deduplication.
// Acquire returns true when the caller is the first holder of the key within the
// TTL window and false when the key is already held. The check-and-insert must
// be atomic under concurrent callers for the same key.
type DedupCache interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Stop releases any background resources held by the cache
	Stop()
}

// sweepSlack keeps expired local entries around slightly past their TTL so the
// periodic sweep cannot race a concurrent Acquire on the expiry boundary.
const sweepSlack = 1 * time.Second

// localSweepInterval is how often the local cache purges expired entries.
const localSweepInterval = 1 * time.Minute

// redisDedupCache implements DedupCache on the shared Redis backend via SET NX EX.
// Correct across multiple serving processes.
type redisDedupCache struct {
	client *redis.Client
}

// NewRedisDedupCache creates a Redis-backed dedup cache
func NewRedisDedupCache(client *redis.Client) DedupCache {
	return &redisDedupCache{client: client}
}

func (c *redisDedupCache) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, "1", ttl)
}

func (c *redisDedupCache) Stop() {}

// localDedupCache implements DedupCache as an in-process expiring map. It is a
// per-process fallback: correct within one instance, blind across instances.
type localDedupCache struct {
	mu      sync.Mutex
	entries map[string]time.Time // key -> expiry instant
	stopCh  chan struct{}
	stopped sync.Once
}

// NewLocalDedupCache creates an in-process dedup cache with a periodic sweep
func NewLocalDedupCache() DedupCache {
	c := &localDedupCache{
		entries: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
	}
	go c.sweepRoutine()
	return c
}

func (c *localDedupCache) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if expiry, ok := c.entries[key]; ok {
		if now.Before(expiry) {
			return false, nil
		}
		// Lazy purge of an expired entry on access
		delete(c.entries, key)
	}

	c.entries[key] = now.Add(ttl)
	return true, nil
}

func (c *localDedupCache) Stop() {
	c.stopped.Do(func() {
		close(c.stopCh)
	})
}

// sweepRoutine periodically removes entries that expired more than sweepSlack ago
func (c *localDedupCache) sweepRoutine() {
	ticker := time.NewTicker(localSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-sweepSlack)
			c.mu.Lock()
			for key, expiry := range c.entries {
				if expiry.Before(cutoff) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

// tieredDedupCache prefers the shared backend and degrades to the local cache
// when the shared backend errors. Deduplication is best-effort: a backend
// outage must never fail or block the tracking path, so Acquire never returns
// an error from the shared tier.
type tieredDedupCache struct {
	shared DedupCache
	local  DedupCache
	logger *logger.Logger
}

// NewDedupCache builds the dedup cache for the configured environment.
// With a Redis client the shared backend is preferred and the local cache
// covers outages; without one the local cache serves alone.
func NewDedupCache(redisClient *redis.Client, log *logger.Logger) DedupCache {
	local := NewLocalDedupCache()

	if redisClient == nil {
		log.Info("Dedup cache running in local-only mode")
		return local
	}

	return &tieredDedupCache{
		shared: NewRedisDedupCache(redisClient),
		local:  local,
		logger: log,
	}
}

func (c *tieredDedupCache) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.shared.Acquire(ctx, key, ttl)
	if err == nil {
		return ok, nil
	}

	c.logger.WithError(err).Warn("Shared dedup backend unavailable, falling back to local cache")
	return c.local.Acquire(ctx, key, ttl)
}

func (c *tieredDedupCache) Stop() {
	c.shared.Stop()
	c.local.Stop()
}
