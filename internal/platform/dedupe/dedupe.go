// Package dedupe remembers recently seen Telegram update ids.
package dedupe

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an update id is remembered.
const DefaultTTL = 10 * time.Minute

// Deduper marks update ids as seen with SETNX.
// A nil Redis client disables de-duplication.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewDeduper creates a Deduper. ttl <= 0 uses DefaultTTL.
func NewDeduper(rdb *redis.Client, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Deduper{rdb: rdb, ttl: ttl, prefix: "tg:update"}
}

// FirstSeen reports whether id has not been seen within the TTL and marks it as seen.
// Redis errors are logged and treated as first sight.
func (d *Deduper) FirstSeen(ctx context.Context, id int) bool {
	if d == nil || d.rdb == nil {
		return true
	}
	key := d.prefix + ":" + strconv.Itoa(id)
	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		slog.Warn("update dedupe failed", "update_id", id, "error", err)
		return true
	}
	return ok
}
