package fiber_handle

import (
	"context"
	"strconv"
	"time"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// fixedWindowScript 计数与设置窗口在同一脚本内完成，缺少过期时间的键会被补上
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

type RateLimitConfig struct {
	Redis  redis.Scripter
	Prefix string
	Max    int64
	Window time.Duration
	// KeyFunc 默认按客户端IP限流
	KeyFunc func(c *fiber.Ctx) string
}

// RateLimit redis 固定窗口限流，redis 不可用时放行
func RateLimit(config RateLimitConfig) fiber.Handler {
	log := logger.GetLogger().WithEntryName("RateLimit")
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *fiber.Ctx) string {
			return c.IP()
		}
	}
	if config.Prefix == "" {
		config.Prefix = "ratelimit"
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	return func(c *fiber.Ctx) error {
		if config.Redis == nil || config.Max <= 0 {
			return c.Next()
		}

		key := config.Prefix + ":" + config.KeyFunc(c)
		ctx, cancel := context.WithTimeout(c.UserContext(), 500*time.Millisecond)
		defer cancel()

		res, err := fixedWindowScript.Run(ctx, config.Redis, []string{key}, config.Window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			log.WithErr(err).WithField("key", key).Warn("限流计数失败，放行请求")
			return c.Next()
		}
		count, ttl := res[0], time.Duration(res[1])*time.Millisecond

		remaining := config.Max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.FormatInt(config.Max, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > config.Max {
			if ttl > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
			}
			return errorc.New("请求过于频繁，请稍后再试", nil).TooMany()
		}
		return c.Next()
	}
}
