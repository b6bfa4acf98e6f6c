package controller

import (
	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/pkg/core/result"
	"shortlink/pkg/core/security"
	"shortlink/pkg/core/util"
	"shortlink/system/user/api/dto"
	"shortlink/system/user/internal/app"
	"shortlink/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthController 注册、登录与登录状态
type AuthController struct {
	app         *app.App
	requireAuth fiber.Handler
	err         *errorc.ErrorBuilder
	log         *logger.Log
}

func NewAuthController(app *app.App, requireAuth fiber.Handler) *AuthController {
	return &AuthController{
		app:         app,
		requireAuth: requireAuth,
		err:         errorc.NewErrorBuilder("AuthController"),
		log:         logger.GetLogger().WithEntryName("AuthController"),
	}
}

// RegisterRoutes 注册路由
func (ctrl *AuthController) RegisterRoutes(router fiber.Router) {
	auth := router.Group("/auth")
	auth.Post("/register", ctrl.Register)
	auth.Post("/login", ctrl.Login)
	auth.Get("/status", ctrl.requireAuth, ctrl.Status)
}

// Register 注册
func (ctrl *AuthController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterReq
	if err := ctx.BodyParser(&req); err != nil {
		return ctrl.err.New("解析请求参数失败", err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(ctrl.log.GetLogger())
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return ctrl.err.New(errMsg, err).ValidWithCtx().WithTraceID(util.Context(ctx))
	}

	res, err := ctrl.app.Register(util.Context(ctx), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return result.Created(ctx, res)
}

// Login 登录
func (ctrl *AuthController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginReq
	if err := ctx.BodyParser(&req); err != nil {
		return ctrl.err.New("解析请求参数失败", err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(ctrl.log.GetLogger())
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return ctrl.err.New(errMsg, err).ValidWithCtx().WithTraceID(util.Context(ctx))
	}

	res, err := ctrl.app.Login(util.Context(ctx), req.Username, req.Password)
	return result.Once(ctx, res, err)
}

// Status 当前登录用户信息
func (ctrl *AuthController) Status(ctx *fiber.Ctx) error {
	claims, err := security.GetUserClaimsByCtx(ctx.UserContext())
	if err != nil {
		return err
	}

	user, err := ctrl.app.Status(util.Context(ctx), claims.ID)
	if err != nil {
		return err
	}
	var expireAt int64
	if claims.ExpiresAt != nil {
		expireAt = claims.ExpiresAt.Unix()
	}
	return result.OK(ctx, fiber.Map{"authenticated": true, "user": user, "expireAt": expireAt})
}
