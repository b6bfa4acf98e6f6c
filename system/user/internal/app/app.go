package app

import (
	"context"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/pkg/core/security"
	"shortlink/system/user/internal/dao"
	"shortlink/system/user/internal/model"
	"shortlink/system/user/internal/service"

	"gorm.io/gorm"
)

// App 用户组件应用组合根
type App struct {
	UserService *service.UserService
	auth        *security.UserAuth
	log         *logger.Log
	err         *errorc.ErrorBuilder
}

// LoginResult 登录结果
type LoginResult struct {
	Token    string      `json:"token"`
	ExpireAt int64       `json:"expireAt"`
	User     *model.User `json:"user"`
}

// NewApp 创建用户应用实例
func NewApp(db *gorm.DB, auth *security.UserAuth) *App {
	log := logger.GetLogger().WithEntryName("UserApp")

	userDao := dao.NewUserDao(db, log)
	return &App{
		UserService: service.NewUserService(userDao, log),
		auth:        auth,
		log:         log,
		err:         errorc.NewErrorBuilder("UserApp"),
	}
}

// Register 注册并直接签发令牌
func (a *App) Register(ctx context.Context, username, email, password string) (*LoginResult, error) {
	user, err := a.UserService.Register(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	a.log.WithTrace(ctx).WithUserID(user.ID).Info("用户注册成功")
	return a.issue(user)
}

// Login 校验密码并签发令牌
func (a *App) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := a.UserService.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return a.issue(user)
}

// Status 当前登录用户
func (a *App) Status(ctx context.Context, userID int64) (*model.User, error) {
	return a.UserService.FindById(ctx, userID)
}

func (a *App) issue(user *model.User) (*LoginResult, error) {
	token, expireAt, err := a.auth.CreateSimpleToken(user.ID, user.Username)
	if err != nil {
		return nil, a.err.New("签发令牌失败", err)
	}
	return &LoginResult{Token: token, ExpireAt: expireAt, User: user}, nil
}
