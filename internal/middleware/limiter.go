package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	pkgredis "github.com/logoforge/server/internal/pkg/redis"
	"github.com/logoforge/server/internal/pkg/response"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

var generationLimiterPrefix = pkgredis.Key("limiter", "generate")

// GenerationLimit caps how often a user may start generation or edit jobs.
// rate uses the limiter format, e.g. "10-M". Requests are keyed by user ID,
// falling back to client IP. A nil rdb keeps counters in memory.
func GenerationLimit(rdb *redis.Client, rate string, log *zap.Logger) (gin.HandlerFunc, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate_limit.generate %q: %w", rate, err)
	}

	var store limiter.Store
	if rdb != nil {
		store, err = sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: generationLimiterPrefix})
		if err != nil {
			return nil, fmt.Errorf("create limiter store: %w", err)
		}
	} else {
		store = memory.NewStore()
	}

	instance := limiter.New(store, parsed)
	return mgin.NewMiddleware(instance,
		mgin.WithKeyGetter(func(c *gin.Context) string {
			if uid := CurrentUserID(c); uid != "" {
				return "user:" + uid
			}
			return "ip:" + c.ClientIP()
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			response.TooManyRequests(c, "generation limit reached, try again later")
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			if log != nil {
				log.Warn("generation limiter unavailable", zap.Error(err))
			}
			c.Next()
		}),
	), nil
}
