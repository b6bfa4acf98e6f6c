package shorturl

import (
	"context"
	"fmt"
	"time"

	"shortlink/base"
	"shortlink/pkg/core/logger"
	"shortlink/pkg/core/system"
	"shortlink/pkg/dispatcher"
	"shortlink/pkg/scheduler"
	internalapp "shortlink/system/shorturl/internal/app"
	"shortlink/system/shorturl/internal/cache"
	"shortlink/system/shorturl/internal/dao"
	"shortlink/system/shorturl/internal/model"
	"shortlink/system/shorturl/internal/service"
)

// Module 短网址组件模块
type Module struct {
	internalApp *internalapp.App
	dispatcher  *dispatcher.Dispatcher
	log         *logger.Log
}

// NewModule 基于 base 中已初始化的资源创建短网址组件，
// 派发器和 GeoIP 库的关闭注册为退出钩子
func NewModule(ctx context.Context) (*Module, error) {
	log := logger.GetLogger().WithEntryName("ShortURLModule")
	cfg := base.Configures.Config

	analyticsDao := dao.NewAnalyticsDao(base.Mongo, log)
	if err := analyticsDao.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("创建统计索引失败: %w", err)
	}

	d := dispatcher.New(dispatcher.Config{
		Workers:       cfg.Analytics.Workers,
		QueueSize:     cfg.Analytics.QueueSize,
		RetryAttempts: cfg.Analytics.RetryAttempts,
		RetryBackoff:  cfg.Analytics.RetryBackoff,
		JobTimeout:    cfg.Analytics.JobTimeout,
	})
	d.Start()
	system.RegisterClose("dispatcher", d.Shutdown)

	deps := internalapp.Deps{
		DB:         base.DB,
		Cache:      cache.NewLinkCache(base.Cache, cfg.ShortURL.LinkCacheTTL),
		Analytics:  analyticsDao,
		Dispatcher: d,
	}
	if cfg.Analytics.GeoIPDB != "" {
		geo, err := service.OpenGeoIP(cfg.Analytics.GeoIPDB)
		if err != nil {
			return nil, fmt.Errorf("打开 GeoIP 库失败: %w", err)
		}
		system.RegisterClose("geoip", func(ctx context.Context) error { return geo.Close() })
		deps.Geo = geo
	}

	app := internalapp.NewApp(deps, internalapp.Options{
		BaseURL:   cfg.BaseURL,
		ShortURL:  cfg.ShortURL,
		Analytics: cfg.Analytics,
		Reaper:    cfg.Reaper,
	})

	return &Module{
		internalApp: app,
		dispatcher:  d,
		log:         log,
	}, nil
}

// CreateLinkRequest 命令行创建短链的参数
type CreateLinkRequest struct {
	URL       string
	Alias     string
	Topic     string
	OwnerID   int64
	ExpiresAt *time.Time
}

// CreateLink 命令行离线创建短链，与 HTTP 接口走同一应用层，返回完整短链接
func (m *Module) CreateLink(ctx context.Context, req CreateLinkRequest) (string, bool, error) {
	link, created, err := m.internalApp.CreateShortLink(ctx, &internalapp.CreateShortLinkRequest{
		OriginalURL: req.URL,
		CustomAlias: req.Alias,
		Topic:       req.Topic,
		ExpiresAt:   req.ExpiresAt,
		OwnerID:     req.OwnerID,
		CreatedFrom: model.CreatedFromCLI,
	})
	if err != nil {
		return "", false, err
	}
	return m.internalApp.ShortURL(link.ShortCode), created, nil
}

// RegisterTasks 注册过期短链清理任务和派发统计任务，清理任务多实例下同一时刻只有一个实例执行
func (m *Module) RegisterTasks(s *scheduler.Scheduler) error {
	cfg := base.Configures.Config.Reaper
	task, err := scheduler.NewCronTask("过期短链清理", cfg.Cron, scheduler.TaskExecuteModeDistributed, 5*time.Minute,
		func(ctx context.Context) error {
			n, err := m.internalApp.ReapExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				m.log.WithField("count", n).Info("已停用过期短链")
			}
			return nil
		})
	if err != nil {
		return err
	}
	if err = s.AddTask(task); err != nil {
		return err
	}

	// 每个实例各自上报本地派发队列状态
	stats := scheduler.NewIntervalTask("分析派发统计", time.Now().Add(time.Minute), time.Minute, scheduler.TaskExecuteModeLocal, 5*time.Second,
		func(ctx context.Context) error {
			st := m.dispatcher.Stats()
			m.log.WithField("submitted", st.Submitted).WithField("succeeded", st.Succeeded).
				WithField("failed", st.Failed).WithField("dropped", st.Dropped).Debug("分析派发统计")
			return nil
		})
	return s.AddTask(stats)
}

// DispatcherStats 异步派发统计
func (m *Module) DispatcherStats() dispatcher.Stats {
	return m.dispatcher.Stats()
}
