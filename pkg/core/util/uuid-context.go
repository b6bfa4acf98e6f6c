package util

import (
	"context"

	"shortlink/pkg/core/consts"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/satori/go.uuid"
)

// Context 返回带链路ID的请求上下文
func Context(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx.Value(consts.TraceKey) == nil {
		return context.WithValue(ctx, consts.TraceKey, uuid.NewV4().String())
	}
	return ctx
}

// Detach 复制链路ID到新的后台上下文，请求结束后仍可使用
func Detach(ctx context.Context) context.Context {
	bg := context.Background()
	if traceID, ok := ctx.Value(consts.TraceKey).(string); ok {
		bg = context.WithValue(bg, consts.TraceKey, traceID)
	}
	return bg
}
