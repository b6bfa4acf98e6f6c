package http

import (
	"shortlink/pkg/core/util"
	internalapp "shortlink/system/shorturl/internal/app"

	"github.com/gofiber/fiber/v2"
)

// RedirectController 短码跳转，/:code 会匹配任意一级路径，必须最后注册
type RedirectController struct {
	app *internalapp.App
}

func NewRedirectController(app *internalapp.App) *RedirectController {
	return &RedirectController{
		app: app,
	}
}

// RegisterRoutes 注册路由
func (c *RedirectController) RegisterRoutes(router fiber.Router) {
	router.Get("/api/shorten/:alias", c.redirectBy("alias"))
	router.Get("/:code", c.redirectBy("code"))
}

func (c *RedirectController) redirectBy(param string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		target, err := c.app.Redirect(util.Context(ctx), &internalapp.RedirectRequest{
			Code:      ctx.Params(param),
			IP:        ctx.IP(),
			UserAgent: ctx.Get(fiber.HeaderUserAgent),
			Referrer:  ctx.Get(fiber.HeaderReferer),
			Language:  ctx.Get(fiber.HeaderAcceptLanguage),
		})
		if err != nil {
			return err
		}
		return ctx.Redirect(target, fiber.StatusFound)
	}
}
