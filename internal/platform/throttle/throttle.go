// Package throttle limits how often a user may run expensive bot commands.
package throttle

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter reports whether the subject identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key int64) bool
}

// New returns a Redis-backed limiter when rdb is non-nil, otherwise an in-memory one.
// limit <= 0 disables throttling.
func New(rdb *redis.Client, limit int, window time.Duration) Limiter {
	if limit <= 0 || window <= 0 {
		return Unlimited{}
	}
	mem := NewMemoryLimiter(limit, window)
	if rdb == nil {
		return mem
	}
	return NewRedisLimiter(rdb, limit, window, mem)
}

// Unlimited allows everything.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, int64) bool { return true }

// RedisLimiter is a fixed-window counter kept in Redis (INCR + EXPIRE).
// When Redis fails it falls back to the in-memory limiter.
type RedisLimiter struct {
	rdb      *redis.Client
	limit    int
	window   time.Duration
	prefix   string
	fallback Limiter
}

// NewRedisLimiter creates a RedisLimiter. fallback may be nil, in which case Redis errors allow the request.
func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration, fallback Limiter) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window, prefix: "throttle", fallback: fallback}
}

func (l *RedisLimiter) key(subject int64) string {
	return l.prefix + ":" + strconv.FormatInt(subject, 10)
}

// Allow increments the subject's counter and reports whether it is still within the limit.
func (l *RedisLimiter) Allow(ctx context.Context, subject int64) bool {
	key := l.key(subject)

	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return l.fallbackAllow(ctx, subject, err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			slog.Warn("throttle expire failed", "key", key, "error", err)
		}
	}
	return n <= int64(l.limit)
}

func (l *RedisLimiter) fallbackAllow(ctx context.Context, subject int64, err error) bool {
	slog.Warn("throttle redis unavailable, using in-memory window", "subject", subject, "error", err)
	if l.fallback == nil {
		return true
	}
	return l.fallback.Allow(ctx, subject)
}

type window struct {
	start time.Time
	count int
}

// MemoryLimiter is a process-local fixed-window counter.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[int64]*window
	now     func() time.Time
}

// NewMemoryLimiter creates a MemoryLimiter.
func NewMemoryLimiter(limit int, windowLen time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  windowLen,
		windows: make(map[int64]*window),
		now:     time.Now,
	}
}

// Allow counts one request for subject.
func (l *MemoryLimiter) Allow(_ context.Context, subject int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[subject]
	if !ok || now.Sub(w.start) >= l.window {
		if len(l.windows) > 10000 {
			l.sweep(now)
		}
		w = &window{start: now}
		l.windows[subject] = w
	}
	w.count++
	return w.count <= l.limit
}

// sweep drops expired windows. Callers hold mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, k)
		}
	}
}
