package http

import (
	"strconv"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/pkg/core/result"
	"shortlink/pkg/core/security"
	"shortlink/pkg/core/util"
	internalapp "shortlink/system/shorturl/internal/app"
	"shortlink/utils"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsController 访问统计查询
type AnalyticsController struct {
	app    *internalapp.App
	guards Guards
	err    *errorc.ErrorBuilder
	log    *logger.Log
}

func NewAnalyticsController(app *internalapp.App, guards Guards) *AnalyticsController {
	return &AnalyticsController{
		app:    app,
		guards: guards,
		err:    errorc.NewErrorBuilder("AnalyticsController"),
		log:    logger.GetLogger().WithEntryName("AnalyticsController"),
	}
}

// RegisterRoutes 注册路由
func (c *AnalyticsController) RegisterRoutes(router fiber.Router) {
	group := router.Group("/analytics", c.guards.limit(), c.guards.auth())
	group.Get("/url/:id", c.ByLink)
	group.Get("/topic/:topic", c.ByTopic)
	group.Get("/overall", c.Overall)
	group.Get("/code/:shortCode", c.ByCode)
}

// ByLink 单个短链的统计
func (c *AnalyticsController) ByLink(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return c.err.New("ID参数错误", err).ValidWithCtx().WithTraceID(util.Context(ctx))
	}
	ownerID, err := security.GetUserID(ctx)
	if err != nil {
		return err
	}

	stats, err := c.app.GetLinkAnalytics(util.Context(ctx), ownerID, id)
	return result.Once(ctx, stats, err)
}

// ByTopic 某主题下全部短链的聚合统计
func (c *AnalyticsController) ByTopic(ctx *fiber.Ctx) error {
	ownerID, err := security.GetUserID(ctx)
	if err != nil {
		return err
	}
	topic := utils.NormalizeTopic(ctx.Params("topic"))
	if topic == "" {
		return result.BadRequestNormal(ctx, "主题不能为空", nil)
	}

	stats, err := c.app.GetTopicAnalytics(util.Context(ctx), ownerID, topic)
	return result.Once(ctx, stats, err)
}

// Overall 当前用户全部短链的聚合统计
func (c *AnalyticsController) Overall(ctx *fiber.Ctx) error {
	ownerID, err := security.GetUserID(ctx)
	if err != nil {
		return err
	}

	stats, err := c.app.GetOverallAnalytics(util.Context(ctx), ownerID)
	return result.Once(ctx, stats, err)
}

// ByCode 按短码查询统计
func (c *AnalyticsController) ByCode(ctx *fiber.Ctx) error {
	ownerID, err := security.GetUserID(ctx)
	if err != nil {
		return err
	}

	stats, err := c.app.GetCodeAnalytics(util.Context(ctx), ownerID, ctx.Params("shortCode"))
	return result.Once(ctx, stats, err)
}
