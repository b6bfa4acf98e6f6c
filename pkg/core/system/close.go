package system

import (
	"context"
	"sync"

	"shortlink/pkg/core/logger"
)

type closer struct {
	name string
	f    func(ctx context.Context) error
}

var (
	closes []closer
	mu     = sync.Mutex{}
)

// RegisterClose 注册退出钩子，退出时按注册的逆序执行
func RegisterClose(name string, f func(ctx context.Context) error) {
	mu.Lock()
	defer mu.Unlock()

	closes = append(closes, closer{name: name, f: f})
}

// Shutdown 执行全部退出钩子，单个钩子失败不影响其余钩子
func Shutdown(ctx context.Context) {
	mu.Lock()
	list := closes
	closes = nil
	mu.Unlock()

	log := logger.GetLogger().WithEntryName("Shutdown")
	for i := len(list) - 1; i >= 0; i-- {
		c := list[i]
		if err := c.f(ctx); err != nil {
			log.WithErr(err).WithField("hook", c.name).Error("退出钩子执行失败")
			continue
		}
		log.WithField("hook", c.name).Info("退出钩子执行完毕")
	}
}
