package logger

import (
	"strings"
	"time"

	"shortlink/pkg/core/consts"
	errorc "shortlink/pkg/core/err"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	Logger *Log
}

// NewApiLogger 请求日志中间件
func NewApiLogger(config Config) fiber.Handler {
	log := config.Logger.WithField("EntryName", "API")

	return func(c *fiber.Ctx) (err error) {
		path := strings.SplitN(c.OriginalURL(), "?", 2)[0]
		start := time.Now()

		err = c.Next()

		entry := log.WithField("status", c.Response().StatusCode()).
			WithField("latency", time.Since(start).Round(time.Millisecond)).
			WithField("method", c.Method()).
			WithField("path", path).
			WithField("TraceId", c.UserContext().Value(consts.TraceKey)).
			WithField("userId", c.Locals(consts.UserIDKey))

		if err != nil {
			errc := errorc.ParseError(err)
			// 4xx 属于调用方问题，只记一行
			if errc.Code >= 500 {
				errc.ToLog(entry.GetLogger())
			} else {
				entry.WithField("Err", errc.Msg).Info("请求处理完毕")
			}
			return err
		}

		entry.Debug("请求处理完毕")
		return nil
	}
}
