package fiber_handle

import (
	"errors"

	errorc "shortlink/pkg/core/err"

	"github.com/gofiber/fiber/v2"
)

// ErrHandler 统一错误响应，HTTP 状态码与业务状态码一致
func ErrHandler(ctx *fiber.Ctx, err error) error {
	var e *fiber.Error
	if errors.As(err, &e) {
		return ctx.Status(e.Code).JSON(fiber.Map{"status": e.Code, "message": e.Message})
	}

	cError := errorc.ParseError(err)
	status := cError.ErrorCode.HTTPStatus()

	body := fiber.Map{"status": status, "message": cError.Msg}
	if cError.ErrorCode != nil {
		body["code"] = cError.ErrorCode.Name
	}
	if cError.TraceID != "" {
		body["traceId"] = cError.TraceID
	}
	return ctx.Status(status).JSON(body)
}
