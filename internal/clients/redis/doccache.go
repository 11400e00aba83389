package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/resummate/resummate-backend/internal/platform/envutil"
	"github.com/resummate/resummate-backend/internal/platform/logger"
)

// DocCache caches document records on the chat hot path. Entries are
// invalidated on upload and delete; a miss always falls through to the store,
// so the cache is safe to run without.
type DocCache interface {
	Get(ctx context.Context, kind, threadID string, out any) bool
	Set(ctx context.Context, kind, threadID string, v any)
	Invalidate(ctx context.Context, kind, threadID string)
	Close() error
}

type docCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewDocCache connects to REDIS_ADDR. Returns an error when the address is
// unset; the app treats that as "run without a cache".
func NewDocCache(log *logger.Logger) (DocCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &docCache{
		log: log.With("service", "RedisDocCache"),
		rdb: rdb,
		ttl: envutil.Duration("REDIS_DOC_TTL_SECONDS", 5*time.Minute),
	}, nil
}

func cacheKey(kind, threadID string) string {
	return "doc:" + kind + ":" + threadID
}

func (c *docCache) Get(ctx context.Context, kind, threadID string, out any) bool {
	raw, err := c.rdb.Get(ctx, cacheKey(kind, threadID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("doc cache get failed", "kind", kind, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Warn("doc cache decode failed", "kind", kind, "error", err)
		return false
	}
	return true
}

func (c *docCache) Set(ctx context.Context, kind, threadID string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("doc cache encode failed", "kind", kind, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(kind, threadID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("doc cache set failed", "kind", kind, "error", err)
	}
}

func (c *docCache) Invalidate(ctx context.Context, kind, threadID string) {
	if err := c.rdb.Del(ctx, cacheKey(kind, threadID)).Err(); err != nil {
		c.log.Warn("doc cache invalidate failed", "kind", kind, "error", err)
	}
}

func (c *docCache) Close() error {
	return c.rdb.Close()
}
