package middleware

import (
  "context"
  "fmt"
  "net/http"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/redis/go-redis/v9"

  "github.com/codemate-vn/codemate-backend/internal/logger"
  "github.com/codemate-vn/codemate-backend/internal/requestdata"
)

// counterStore increments a windowed counter and returns the new count.
type counterStore interface {
  Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// incrWithExpire bumps the counter and arms the TTL in one round trip, so a
// crash between the two steps can never leave a key that counts forever.
var incrWithExpire = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return n
`)

type redisCounter struct {
  rdb *redis.Client
}

func (rc *redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
  return incrWithExpire.Run(ctx, rc.rdb, []string{key}, int(window.Seconds())).Int64()
}

// RateLimitMiddleware caps chat requests per user over a fixed window,
// counted in Redis so the cap holds across replicas. Redis being down never
// blocks traffic; the limiter fails open.
type RateLimitMiddleware struct {
  log     *logger.Logger
  store   counterStore
  limit   int
  window  time.Duration
}

func NewRateLimitMiddleware(log *logger.Logger, rdb *redis.Client, limit int, window time.Duration) *RateLimitMiddleware {
  middlewareLog := log.With("middleware", "RateLimitMiddleware")
  var store counterStore
  if rdb != nil {
    store = &redisCounter{rdb: rdb}
  }
  return &RateLimitMiddleware{log: middlewareLog, store: store, limit: limit, window: window}
}

func (rl *RateLimitMiddleware) LimitChat() gin.HandlerFunc {
  return func(c *gin.Context) {
    if rl.store == nil || rl.limit <= 0 {
      c.Next()
      return
    }
    rd := requestdata.GetRequestData(c.Request.Context())
    if rd == nil {
      c.Next()
      return
    }
    key := fmt.Sprintf("ratelimit:chat:%s", rd.UserID.String())

    count, err := rl.store.Incr(c.Request.Context(), key, rl.window)
    if err != nil {
      rl.log.Warn("Rate limiter unavailable, failing open", "error", err)
      c.Next()
      return
    }
    if count > int64(rl.limit) {
      c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
        "error": gin.H{"message": "too many requests, slow down", "code": "RATE_LIMITED"},
      })
      return
    }
    c.Next()
  }
}
