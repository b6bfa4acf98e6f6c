package start

import (
	"fmt"

	"shortlink/pkg/core/fiber_handle"
	"shortlink/pkg/core/logger"
	"shortlink/pkg/core/util"

	"github.com/gofiber/fiber/v2"
	recover2 "github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GetApp 创建 fiber 实例并挂载通用中间件
func GetApp(appName string, probe func(c *fiber.Ctx) error) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:      appName,
			BodyLimit:    1 * 1024 * 1024,
			ErrorHandler: fiber_handle.ErrHandler,
			JSONEncoder:  json.Marshal,
			JSONDecoder:  json.Unmarshal,
		})
	app.Use(fiber_handle.Cors())
	app.Use(recover2.New(recover2.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logger.GetLogger().WithTrace(util.Context(c)).WithField("path", c.Path()).
				Error(fmt.Sprintf("url：%s崩溃了。%+v", c.Path(), e))
		},
	}))
	app.Use(fiber_handle.HealthCheck(fiber_handle.HealthCheckConfig{Path: "/health", Probe: probe}))
	app.Use(fiber_handle.NewApiTracer())
	return app
}
