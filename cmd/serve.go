package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"shortlink/app"
	"shortlink/base"
	"shortlink/pkg/core/system"
	"shortlink/pkg/db"
	"shortlink/router"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务、异步派发器和定时任务",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	log := base.Logger.WithEntryName("Serve")
	cfg := base.Configures.Config

	initResources(ctx)

	if err := db.Run(cfg.Database, base.DB, false); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	if err := base.Scheduler.Start(); err != nil {
		return fmt.Errorf("启动调度器失败: %w", err)
	}

	appRoot, err := app.NewApp(ctx)
	if err != nil {
		return err
	}
	if err = appRoot.ShortURLModule.RegisterTasks(base.Scheduler); err != nil {
		return fmt.Errorf("注册过期短链清理任务失败: %w", err)
	}
	for _, task := range base.Scheduler.ListTasks() {
		base.Logger.WithField("task", task.GetName()).WithField("next", task.GetNextTime()).Info("定时任务已注册")
	}

	fiberApp := app.GetApp()
	router.Register(appRoot, fiberApp)

	errCh := make(chan error, 1)
	go func() {
		errCh <- fiberApp.Listen(fmt.Sprintf(":%d", cfg.Port))
	}()
	log.WithField("port", cfg.Port).WithField("baseUrl", cfg.BaseURL).Info("短链接服务已启动")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("收到退出信号，正在优雅退出...")
	case err = <-errCh:
		log.WithErr(err).Error("HTTP 服务异常退出")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Analytics.DrainTimeout)
	defer cancel()

	// 先停止接收请求，再按逆序关闭派发器、调度器和各连接
	if e := fiberApp.ShutdownWithContext(shutdownCtx); e != nil {
		log.WithErr(e).Warn("关闭 HTTP 服务失败")
	}
	system.Shutdown(shutdownCtx)

	stats := appRoot.ShortURLModule.DispatcherStats()
	log.WithFields(stats).Info("服务已停止")
	return err
}
