package user

import (
	controller "shortlink/system/user/external/http"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册用户组件路由
func RegisterRoutes(m *Module, router fiber.Router, requireAuth fiber.Handler) {
	controller.NewAuthController(m.internalApp, requireAuth).RegisterRoutes(router)
}
