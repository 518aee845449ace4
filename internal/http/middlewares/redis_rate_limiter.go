package middlewares

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter shares limits across API replicas. When redis is
// unreachable it falls back to a per-process limiter with the same budget.
type RedisRateLimiter struct {
	limiter  *redis_rate.Limiter
	limit    redis_rate.Limit
	prefix   string
	fallback *RateLimiter
	log      *slog.Logger
}

func NewRedisRateLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration, log *slog.Logger) *RedisRateLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
		limit: redis_rate.Limit{
			Rate:   limit,
			Burst:  limit,
			Period: window,
		},
		prefix:   "ratelimit:" + prefix + ":",
		fallback: NewRateLimiter(limit, window),
		log:      log,
	}
}

func (rl *RedisRateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.prefix + keyFn(c)

		res, err := rl.limiter.Allow(c.Request.Context(), key, rl.limit)
		if err != nil {
			rl.log.WarnContext(c.Request.Context(), "redis rate limiter unavailable, using local limiter",
				"err", err, "key", key)

			ok, retryAfter := rl.fallback.Allow(key)
			if !ok {
				abortRateLimited(c, retryAfter)
				return
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed == 0 {
			abortRateLimited(c, res.RetryAfter)
			return
		}
		c.Next()
	}
}
