package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/library-seat-booking/internal/config"
)

// Token bucket implemented atomically in Redis.  KEYS[1] holds a hash
// with fields "tokens" and "ts" (last refill, unix milliseconds).
// ARGV: capacity, refill tokens, refill interval ms, now ms, ttl ms.
// Returns {allowed, remaining, retry_after_ms}.
const tokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local now = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local data = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(data[1])
local ts = tonumber(data[2])

if tokens == nil then
  tokens = capacity
  ts = now
end

if now > ts then
  local elapsed = now - ts
  local ticks = math.floor(elapsed / interval)
  if ticks > 0 then
    tokens = math.min(capacity, tokens + ticks * refill)
    ts = ts + ticks * interval
  end
end

local allowed = 0
local retry = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  retry = interval - (now - ts)
  if retry < 0 then retry = 0 end
end

redis.call('HMSET', key, 'tokens', tokens, 'ts', ts)
redis.call('PEXPIRE', key, ttl)

return {allowed, tokens, retry}
`

// buildRateKey composes the Redis key per the configured strategy so
// operators can choose how isolation works (per-IP, per-user, or
// both, optionally per route).
func buildRateKey(strategy, prefix string, c echo.Context) string {
	ip := c.RealIP()
	uid := userID(c)
	route := c.Path()

	switch strings.ToLower(strategy) {
	case "ip":
		return fmt.Sprintf("%s:ip:%s", prefix, ip)
	case "user":
		return fmt.Sprintf("%s:user:%s", prefix, uid)
	case "ip_route":
		return fmt.Sprintf("%s:ip:%s:route:%s", prefix, ip, route)
	case "user_route":
		return fmt.Sprintf("%s:user:%s:route:%s", prefix, uid, route)
	default: // "ip_user_route"
		return fmt.Sprintf("%s:ip:%s:user:%s:route:%s", prefix, ip, uid, route)
	}
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}

// NewTokenBucket returns rate-limiting middleware backed by Redis.
// When Redis is unavailable requests pass through, availability of
// the booking API wins over throttling accuracy.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	script := redis.NewScript(tokenBucketScript)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := buildRateKey(cfg.KeyStrategy, cfg.Prefix, c)
			now := time.Now().UnixMilli()

			res, err := script.Run(ctx, rdb, []string{key},
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				now,
				cfg.TTL.Milliseconds(),
			).Result()
			if err != nil {
				if cfg.Debug {
					log.Printf("[RATELIMIT] redis error, passing through: %v", err)
				}
				return next(c)
			}

			vals, ok := res.([]interface{})
			if !ok || len(vals) != 3 {
				return next(c)
			}
			allowed := asInt64(vals[0]) == 1
			remaining := asInt64(vals[1])
			retryMs := asInt64(vals[2])

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				retrySec := (retryMs + 999) / 1000
				if retrySec < 1 {
					retrySec = 1
				}
				c.Response().Header().Set("Retry-After", strconv.FormatInt(retrySec, 10))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
