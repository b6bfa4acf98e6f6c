package app

import (
	"context"
	"fmt"
	"time"

	"shortlink/base"
	"shortlink/pkg/core/start"

	"github.com/gofiber/fiber/v2"
)

// GetApp 创建 fiber 实例，/health 同时探测数据库、redis 和 mongo
func GetApp() *fiber.App {
	return start.GetApp(base.Configures.Config.AppName, probe)
}

func probe(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if base.DB != nil {
		sqlDB, err := base.DB.DB()
		if err != nil {
			return err
		}
		if err = sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("数据库不可用: %w", err)
		}
	}
	if base.RDB != nil {
		if err := base.RDB.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis 不可用: %w", err)
		}
	}
	if base.Mongo != nil {
		if err := base.Mongo.Client().Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongo 不可用: %w", err)
		}
	}
	return nil
}
