package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// SeenStore remembers which pair addresses were recently alerted so the
// same token does not headline back-to-back digests.
type SeenStore interface {
	// MarkSeen records key for ttl and reports whether this was the first
	// sighting inside the window.
	MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisSeenStore backs suppression with Redis so restarts and multiple
// bot instances share one window.
type RedisSeenStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisSeenStore wraps a Redis client. Keys are namespaced under
// "seen:" to keep the bot's footprint obvious in a shared instance.
func NewRedisSeenStore(client redis.Cmdable) *RedisSeenStore {
	return &RedisSeenStore{client: client, prefix: "seen:"}
}

func (s *RedisSeenStore) MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+key, 1, ttl).Result()
}

// MemorySeenStore is the in-process fallback when no Redis address is
// configured. Expired entries are reaped lazily on each call.
type MemorySeenStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemorySeenStore() *MemorySeenStore {
	return &MemorySeenStore{seen: make(map[string]time.Time), now: time.Now}
}

func (s *MemorySeenStore) MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, expiry := range s.seen {
		if now.After(expiry) {
			delete(s.seen, k)
		}
	}

	if expiry, ok := s.seen[key]; ok && now.Before(expiry) {
		return false, nil
	}
	s.seen[key] = now.Add(ttl)
	return true, nil
}

// NewSeenStore picks Redis when an address is configured, otherwise the
// in-memory store. The Redis connection is probed once so a bad address
// degrades at startup instead of on the first digest.
func NewSeenStore(ctx context.Context, redisAddr string) SeenStore {
	if redisAddr == "" {
		log.Info().Msg("seen-pair store: in-memory")
		return NewMemorySeenStore()
	}

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", redisAddr).Msg("redis unreachable, falling back to in-memory seen store")
		return NewMemorySeenStore()
	}
	log.Info().Str("addr", redisAddr).Msg("seen-pair store: redis")
	return NewRedisSeenStore(client)
}
