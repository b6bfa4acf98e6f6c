package http

import "github.com/gofiber/fiber/v2"

// Guards 路由使用的鉴权和限流中间件
type Guards struct {
	Auth      fiber.Handler
	RateLimit fiber.Handler
}

func (g Guards) auth() fiber.Handler {
	if g.Auth == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return g.Auth
}

func (g Guards) limit() fiber.Handler {
	if g.RateLimit == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return g.RateLimit
}
