package user

import (
	"shortlink/base"
	"shortlink/system/user/internal/app"
)

// Module 用户组件模块门面，只对外暴露路由注册
type Module struct {
	internalApp *app.App
}

// NewModule 创建用户组件模块实例
func NewModule() *Module {
	return &Module{
		internalApp: app.NewApp(base.DB, base.UserAuth),
	}
}
