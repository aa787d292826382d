package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/crimpz/clic/internal/domain"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Lookup layers reported to a CacheRecorder.
const (
	LayerMemory = "memory"
	LayerRedis  = "redis"
	LayerOrigin = "origin"
)

// CacheRecorder is told which layer answered each GetByID.
type CacheRecorder interface {
	Lookup(layer string)
}

type nopCacheRecorder struct{}

func (nopCacheRecorder) Lookup(string) {}

// cachedUser is the Redis representation. Password hashes are never cached.
type cachedUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// UserCache is a domain.UserRepository that serves GetByID from an in-process
// map, then Redis, then the wrapped repository. Concurrent misses for one id
// share a single origin call. Users returned by GetByID carry no PasswordHash.
type UserCache struct {
	rdb      goredis.Cmdable
	users    domain.UserRepository
	ttl      time.Duration
	clock    clockwork.Clock
	recorder CacheRecorder
	group    singleflight.Group
	mem      *memoryCache
}

var _ domain.UserRepository = (*UserCache)(nil)

func NewUserCache(rdb goredis.Cmdable, users domain.UserRepository, ttl time.Duration, clock clockwork.Clock, recorder CacheRecorder) *UserCache {
	if recorder == nil {
		recorder = nopCacheRecorder{}
	}
	return &UserCache{
		rdb:      rdb,
		users:    users,
		ttl:      ttl,
		clock:    clock,
		recorder: recorder,
		mem:      newMemoryCache(clock, ttl),
	}
}

func (c *UserCache) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	return c.users.Create(ctx, username, passwordHash)
}

// GetByUsername is not cached; login needs the password hash.
func (c *UserCache) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return c.users.GetByUsername(ctx, username)
}

func (c *UserCache) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := c.mem.get(id); ok {
		c.recorder.Lookup(LayerMemory)
		return toUser(u), nil
	}

	if u, ok := c.getCached(ctx, id); ok {
		c.recorder.Lookup(LayerRedis)
		c.mem.set(u)
		return toUser(u), nil
	}

	v, err, _ := c.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		// Shared by every waiter on this id, so the leader's cancellation must not end it.
		flightCtx := context.WithoutCancel(ctx)
		user, err := c.users.GetByID(flightCtx, id)
		if err != nil {
			return nil, err
		}
		entry := cachedUser{ID: user.ID, Username: user.Username}
		c.mem.set(entry)
		c.writeCache(flightCtx, entry)
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	c.recorder.Lookup(LayerOrigin)
	return toUser(v.(cachedUser)), nil
}

// StartEviction periodically drops expired in-memory entries until ctx ends.
func (c *UserCache) StartEviction(ctx context.Context, interval time.Duration) {
	ticker := c.clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if n := c.mem.evictExpired(); n > 0 {
					slog.Debug("Evicted expired user cache entries", "count", n)
				}
			}
		}
	}()
}

func (c *UserCache) getCached(ctx context.Context, id int64) (cachedUser, bool) {
	data, err := c.rdb.Get(ctx, userCacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.WarnContext(ctx, "Redis user cache GET failed", "user_id", id, "error", err)
		}
		return cachedUser{}, false
	}

	var u cachedUser
	if err := json.Unmarshal(data, &u); err != nil {
		slog.WarnContext(ctx, "Failed to unmarshal cached user", "user_id", id, "error", err)
		return cachedUser{}, false
	}
	return u, true
}

func (c *UserCache) writeCache(ctx context.Context, u cachedUser) {
	encoded, err := json.Marshal(u)
	if err != nil {
		slog.WarnContext(ctx, "Failed to marshal user for Redis cache", "user_id", u.ID, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, userCacheKey(u.ID), encoded, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to populate Redis user cache", "user_id", u.ID, "error", err)
	}
}

// Ping reports whether Redis answers. Used by readiness checks.
func (c *UserCache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func userCacheKey(id int64) string {
	return "user_cache:" + strconv.FormatInt(id, 10)
}

func toUser(u cachedUser) *domain.User {
	return &domain.User{ID: u.ID, Username: u.Username}
}

type memoryCache struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	ttl     time.Duration
	entries map[int64]memoryEntry
}

type memoryEntry struct {
	user      cachedUser
	expiresAt time.Time
}

func newMemoryCache(clock clockwork.Clock, ttl time.Duration) *memoryCache {
	return &memoryCache{clock: clock, ttl: ttl, entries: make(map[int64]memoryEntry)}
}

func (m *memoryCache) get(id int64) (cachedUser, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok || !m.clock.Now().Before(e.expiresAt) {
		return cachedUser{}, false
	}
	return e.user, true
}

func (m *memoryCache) set(u cachedUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[u.ID] = memoryEntry{user: u, expiresAt: m.clock.Now().Add(m.ttl)}
}

func (m *memoryCache) evictExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	evicted := 0
	for id, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, id)
			evicted++
		}
	}
	return evicted
}

func (m *memoryCache) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
