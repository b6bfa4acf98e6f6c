package shorturl

import (
	controller "shortlink/system/shorturl/external/http"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册短链管理和统计路由
func RegisterRoutes(m *Module, router fiber.Router, guards controller.Guards) {
	controller.NewShortURLController(m.internalApp, guards).RegisterRoutes(router)
	controller.NewAnalyticsController(m.internalApp, guards).RegisterRoutes(router)
}

// RegisterRedirect 注册跳转路由。/:code 匹配任意一级路径，必须在其他路由之后注册
func RegisterRedirect(m *Module, router fiber.Router) {
	controller.NewRedirectController(m.internalApp).RegisterRoutes(router)
}
