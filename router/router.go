package router

import (
	"shortlink/app"
	"shortlink/base"
	"shortlink/pkg/core/fiber_handle"
	"shortlink/pkg/core/logger"
	"shortlink/system/shorturl"
	controller "shortlink/system/shorturl/external/http"
	"shortlink/system/user"

	"github.com/gofiber/fiber/v2"
)

// Register 集中注册所有 HTTP 路由。
// 只依赖 app.App 和 fiber.App，不包含业务逻辑。
// 跳转路由 /:code 必须最后注册
func Register(a *app.App, f *fiber.App) {
	f.Use(logger.NewApiLogger(logger.Config{Logger: base.Logger}))

	rateCfg := base.Configures.Config.RateLimit
	guards := controller.Guards{
		Auth: base.UserAuth.RequireAuth(),
		RateLimit: fiber_handle.RateLimit(fiber_handle.RateLimitConfig{
			Redis:  base.RDB,
			Prefix: "shortlink:ratelimit",
			Max:    rateCfg.Max,
			Window: rateCfg.Window,
		}),
	}

	user.RegisterRoutes(a.UserModule, f, guards.Auth)
	shorturl.RegisterRoutes(a.ShortURLModule, f, guards)
	shorturl.RegisterRedirect(a.ShortURLModule, f)
}
