package http

import (
	"strconv"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/pkg/core/result"
	"shortlink/pkg/core/security"
	"shortlink/pkg/core/util"
	"shortlink/system/shorturl/api/dto"
	internalapp "shortlink/system/shorturl/internal/app"
	"shortlink/system/shorturl/internal/model"
	"shortlink/utils"

	"github.com/gofiber/fiber/v2"
)

// ShortURLController 短链接创建与管理
type ShortURLController struct {
	app    *internalapp.App
	guards Guards
	err    *errorc.ErrorBuilder
	log    *logger.Log
}

func NewShortURLController(app *internalapp.App, guards Guards) *ShortURLController {
	return &ShortURLController{
		app:    app,
		guards: guards,
		err:    errorc.NewErrorBuilder("ShortURLController"),
		log:    logger.GetLogger().WithEntryName("ShortURLController"),
	}
}

// RegisterRoutes 注册路由
func (c *ShortURLController) RegisterRoutes(router fiber.Router) {
	router.Post("/shorten", c.guards.limit(), c.guards.auth(), c.Shorten)
	router.Get("/my-urls", c.guards.auth(), c.MyURLs)
	router.Get("/by-topic/:topic", c.guards.auth(), c.ByTopic)
	router.Patch("/urls/:id", c.guards.auth(), c.UpdateStatus)
}

// Shorten 创建短链接，新建返回 201，同一用户重复缩短同一URL返回 200 和已有记录
func (c *ShortURLController) Shorten(ctx *fiber.Ctx) error {
	var req dto.ShortenRequest
	if err := ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.GetLogger())
	}
	if req.OriginalURL == "" {
		req.OriginalURL = req.LongURL
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return c.err.New(errMsg, err).ValidWithCtx().WithTraceID(util.Context(ctx))
	}

	ownerID, err := security.GetUserID(ctx)
	if err != nil {
		return err
	}

	link, created, err := c.app.CreateShortLink(util.Context(ctx), &internalapp.CreateShortLinkRequest{
		OriginalURL:     req.OriginalURL,
		CustomAlias:     req.CustomAlias,
		Topic:           req.Topic,
		ExpiresAt:       req.ExpiresAt.ToTime(),
		OwnerID:         ownerID,
		CreatedFrom:     createdFrom(ctx),
		ClientIP:        ctx.IP(),
		ClientUserAgent: ctx.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return err
	}

	if created {
		return result.Created(ctx, toLinkDTO(c.app, link))
	}
	return result.OK(ctx, toLinkDTO(c.app, link))
}

// MyURLs 当前用户的短链接
func (c *ShortURLController) MyURLs(ctx *fiber.Ctx) error {
	ownerID, err := security.GetUserID(ctx)
	if err != nil {
		return err
	}

	links, err := c.app.ListLinks(util.Context(ctx), ownerID, "")
	if err != nil {
		return err
	}
	return result.OK(ctx, fiber.Map{
		"total":   len(links),
		"content": toLinkDTOs(c.app, links),
	})
}

// ByTopic 当前用户某主题下的短链接
func (c *ShortURLController) ByTopic(ctx *fiber.Ctx) error {
	ownerID, err := security.GetUserID(ctx)
	if err != nil {
		return err
	}

	topic := utils.NormalizeTopic(ctx.Params("topic"))
	if topic == "" {
		return result.BadRequestNormal(ctx, "主题不能为空", nil)
	}

	links, err := c.app.ListLinks(util.Context(ctx), ownerID, topic)
	if err != nil {
		return err
	}
	return result.OK(ctx, fiber.Map{
		"topic":   topic,
		"total":   len(links),
		"content": toLinkDTOs(c.app, links),
	})
}

// UpdateStatus 启用、停用或修改过期时间
func (c *ShortURLController) UpdateStatus(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return c.err.New("ID参数错误", err).ValidWithCtx().WithTraceID(util.Context(ctx))
	}

	var req dto.UpdateStatusRequest
	if err = ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.GetLogger())
	}

	ownerID, err := security.GetUserID(ctx)
	if err != nil {
		return err
	}

	link, err := c.app.UpdateLinkStatus(util.Context(ctx), ownerID, id, &internalapp.UpdateLinkStatusRequest{
		IsActive:    req.IsActive,
		ExpiresAt:   req.ExpiresAt.ToTime(),
		ClearExpiry: req.ClearExpiry,
	})
	if err != nil {
		return err
	}
	return result.OK(ctx, toLinkDTO(c.app, link))
}

// createdFrom 创建来源取自 X-Created-From 头，缺省为 web
func createdFrom(ctx *fiber.Ctx) string {
	switch v := ctx.Get("X-Created-From"); v {
	case model.CreatedFromAPI, model.CreatedFromCLI:
		return v
	}
	return model.CreatedFromWeb
}
