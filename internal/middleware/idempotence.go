package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	pkgredis "github.com/logoforge/server/internal/pkg/redis"
	"github.com/logoforge/server/internal/pkg/response"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotenceHeader = "x-idempotence"
	idempotenceTTL    = 60 * time.Second

	idemPending = "0"
	idemDone    = "1"
)

// Idempotence rejects a repeated non-GET request while the first one is in
// progress and for 60 seconds after it succeeded. Failed requests may be
// retried at once. The key is the x-idempotence header, or a hash of the
// request, scoped to the caller.
func Idempotence(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || rdb == nil {
			c.Next()
			return
		}

		key, ok := idempotenceKey(c)
		if !ok {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		claimed, err := rdb.SetNX(ctx, key, idemPending, idempotenceTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !claimed {
			msg := "an identical request succeeded less than 60 seconds ago"
			if rdb.Get(ctx, key).Val() == idemPending {
				msg = "an identical request is still being processed"
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		if status := c.Writer.Status(); status >= 200 && status < 300 {
			rdb.Set(ctx, key, idemDone, redis.KeepTTL)
		} else {
			rdb.Del(ctx, key)
		}
	}
}

// idempotenceKey hashes the caller together with the client key or, without
// one, the method, URL, body and client fingerprint.
func idempotenceKey(c *gin.Context) (string, bool) {
	caller := CurrentUserID(c)
	if caller == "" {
		caller = "anon:" + extractToken(c)
	}

	h := sha256.New()
	io.WriteString(h, caller+"|")
	if hdr := c.GetHeader(IdempotenceHeader); hdr != "" {
		io.WriteString(h, "key|"+hdr)
		return pkgredis.Key("idempotence", hex.EncodeToString(h.Sum(nil))), true
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", false
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	ua, ip := c.Request.UserAgent(), c.ClientIP()
	if len(body) == 0 && ua == "" && ip == "" && caller == "anon:" {
		return "", false
	}
	io.WriteString(h, c.Request.Method+"|"+c.Request.URL.String()+"|"+ua+"|"+ip+"|")
	h.Write(body)
	return pkgredis.Key("idempotence", hex.EncodeToString(h.Sum(nil))), true
}
