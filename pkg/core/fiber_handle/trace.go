package fiber_handle

import (
	"context"

	"shortlink/pkg/core/consts"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/satori/go.uuid"
)

// NewApiTracer 为每个请求生成链路ID，优先沿用调用方传入的请求头
func NewApiTracer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(consts.TraceHeaderName)
		if traceID == "" {
			traceID = uuid.NewV4().String()
		}

		ctx := context.WithValue(c.UserContext(), consts.TraceKey, traceID)
		c.SetUserContext(ctx)
		c.Locals(consts.TraceKey, traceID)
		c.Set(consts.TraceHeaderName, traceID)
		return c.Next()
	}
}
