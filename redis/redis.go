package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect returns nil without error when addr is empty; callers treat a nil
// client as "redis disabled".
func Connect(ctx context.Context, addr string, log *slog.Logger) (*redis.Client, error) {
	if strings.TrimSpace(addr) == "" {
		log.Warn("redis disabled (REDIS_ADDR not set)")
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	log.Info("connected to redis", "addr", addr)
	return client, nil
}

// RateLimiter is a fixed-window counter shared by every API instance.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, prefix string) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RateLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix}
}

func (rl *RateLimiter) Limit() int { return rl.limit }

// Allow counts one hit for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	res, err := fixedWindowScript.Run(ctx, rl.rdb, []string{rl.Key(key)}, rl.window.Milliseconds()).Result()
	if err != nil {
		return false, 0, err
	}
	count, err := toInt64(res)
	if err != nil {
		return false, 0, err
	}
	return count <= int64(rl.limit), count, nil
}

func (rl *RateLimiter) Key(key string) string {
	return rl.prefix + ":" + key
}

func toInt64(res any) (int64, error) {
	switch v := res.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}

// RatingCache keeps the latest aggregate per provider so listings can read it
// without touching the database.
type RatingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRatingCache(rdb *redis.Client, ttl time.Duration) *RatingCache {
	if ttl <= 0 {
		ttl = 25 * time.Hour
	}
	return &RatingCache{rdb: rdb, ttl: ttl}
}

func ratingKey(providerID uint) string {
	return "provider:" + strconv.FormatUint(uint64(providerID), 10) + ":rating"
}

func (c *RatingCache) SetRating(ctx context.Context, providerID uint, average float64, total int64) error {
	key := ratingKey(providerID)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, "average", strconv.FormatFloat(average, 'f', -1, 64), "total", total)
	pipe.Expire(ctx, key, c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Rating reports ok=false on a cache miss.
func (c *RatingCache) Rating(ctx context.Context, providerID uint) (average float64, total int64, ok bool, err error) {
	vals, err := c.rdb.HGetAll(ctx, ratingKey(providerID)).Result()
	if err != nil {
		return 0, 0, false, err
	}
	if len(vals) == 0 {
		return 0, 0, false, nil
	}
	average, err = strconv.ParseFloat(vals["average"], 64)
	if err != nil {
		return 0, 0, false, err
	}
	total, err = strconv.ParseInt(vals["total"], 10, 64)
	if err != nil {
		return 0, 0, false, err
	}
	return average, total, true, nil
}
