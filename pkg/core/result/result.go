package result

import (
	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/util"

	"github.com/gofiber/fiber/v2"
)

func OK(c *fiber.Ctx, v interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": fiber.StatusOK, "data": v})
}

// Created 新建资源
func Created(c *fiber.Ctx, v interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": fiber.StatusCreated, "data": v})
}

func BadRequestNormal(c *fiber.Ctx, message string, err error) error {
	return errorc.New(message, err).ValidWithCtx().WithTraceID(util.Context(c))
}

func Once(c *fiber.Ctx, v interface{}, err error) error {
	if err == nil {
		return OK(c, v)
	}
	return err
}
