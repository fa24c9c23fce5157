package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	pkgredis "github.com/logoforge/server/internal/pkg/redis"
	"github.com/logoforge/server/internal/pkg/response"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	rateLimitMax    = 50
	rateLimitWindow = time.Second
)

// RateLimit allows 50 requests per one-second window per client IP.
// Authenticated callers are exempt; their expensive routes sit behind GenerationLimit.
// Redis errors let the request through.
func RateLimit(rdb *redis.Client, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if rdb == nil || ip == "" || IsAuthenticated(c) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := pkgredis.Key("rate_limit", ip, strconv.FormatInt(time.Now().Unix(), 10))

		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, 2*rateLimitWindow)
		if _, err := pipe.Exec(ctx); err != nil {
			c.Next()
			return
		}

		if count := incr.Val(); count > rateLimitMax {
			if count == rateLimitMax+1 && log != nil {
				log.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			}
			c.Header("Retry-After", "1")
			response.TooManyRequests(c, "too many requests, slow down")
			return
		}
		c.Next()
	}
}
