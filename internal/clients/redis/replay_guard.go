package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

// ReplayGuard remembers webhook deliveries that were fully processed so
// redeliveries can be acknowledged without touching the store. It is a
// fast path only; the store-level guards stay authoritative.
type ReplayGuard interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
	Close() error
}

const defaultReplayTTL = 72 * time.Hour

type redisReplayGuard struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewReplayGuard connects to REDIS_ADDR. When it is unset the in-memory
// guard is returned instead.
func NewReplayGuard(log *logger.Logger) (ReplayGuard, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Warn("REDIS_ADDR not set; webhook replay guard is process-local")
		return NewMemoryReplayGuard(defaultReplayTTL), nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisReplayGuard(log, rdb, "webhook:seen:", defaultReplayTTL), nil
}

func NewRedisReplayGuard(log *logger.Logger, rdb goredis.UniversalClient, prefix string, ttl time.Duration) ReplayGuard {
	if ttl <= 0 {
		ttl = defaultReplayTTL
	}
	return &redisReplayGuard{
		log:    log.With("service", "RedisReplayGuard"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Client exposes the underlying connection for health collectors.
func (g *redisReplayGuard) Client() goredis.UniversalClient { return g.rdb }

func (g *redisReplayGuard) Seen(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, nil
	}
	n, err := g.rdb.Exists(ctx, g.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("replay guard lookup: %w", err)
	}
	return n > 0, nil
}

func (g *redisReplayGuard) Mark(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if err := g.rdb.SetNX(ctx, g.prefix+key, time.Now().UTC().Format(time.RFC3339), g.ttl).Err(); err != nil {
		return fmt.Errorf("replay guard mark: %w", err)
	}
	return nil
}

func (g *redisReplayGuard) Close() error {
	return g.rdb.Close()
}

type memoryReplayGuard struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	seen map[string]time.Time
}

func NewMemoryReplayGuard(ttl time.Duration) ReplayGuard {
	if ttl <= 0 {
		ttl = defaultReplayTTL
	}
	return &memoryReplayGuard{ttl: ttl, now: time.Now, seen: map[string]time.Time{}}
}

func (g *memoryReplayGuard) Seen(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	exp, ok := g.seen[key]
	if !ok {
		return false, nil
	}
	if g.now().After(exp) {
		delete(g.seen, key)
		return false, nil
	}
	return true, nil
}

func (g *memoryReplayGuard) Mark(_ context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for k, exp := range g.seen {
		if now.After(exp) {
			delete(g.seen, k)
		}
	}
	g.seen[key] = now.Add(g.ttl)
	return nil
}

func (g *memoryReplayGuard) Close() error { return nil }
