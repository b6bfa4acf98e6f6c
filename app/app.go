package app

import (
	"context"

	"shortlink/system/shorturl"
	"shortlink/system/user"
)

// App 应用组合根，持有各组件模块
type App struct {
	UserModule     *user.Module
	ShortURLModule *shorturl.Module
}

// NewApp 在 base 资源初始化完成后创建各组件模块
func NewApp(ctx context.Context) (*App, error) {
	shortURLModule, err := shorturl.NewModule(ctx)
	if err != nil {
		return nil, err
	}

	return &App{
		UserModule:     user.NewModule(),
		ShortURLModule: shortURLModule,
	}, nil
}
