package app

import (
	"context"
	"time"

	"shortlink/pkg/core/config"
	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/pkg/dispatcher"
	"shortlink/system/shorturl/internal/dao"
	"shortlink/system/shorturl/internal/model"
	"shortlink/system/shorturl/internal/service"

	"gorm.io/gorm"
)

// LinkCache 短链旁路缓存，由 *cache.LinkCache 实现
type LinkCache interface {
	Get(ctx context.Context, code string) (*model.ShortLink, error)
	Set(ctx context.Context, link *model.ShortLink) error
	Invalidate(ctx context.Context, keys ...string) error
	Once(ctx context.Context, key string, ttl time.Duration, value interface{}, load func() (interface{}, error)) error
}

// AnalyticsStore 跳转统计存储，由 *dao.AnalyticsDao 实现
type AnalyticsStore interface {
	RecordRedirect(ctx context.Context, linkID int64, ev *model.RedirectEvent, maxEvents int) error
	FindByLinkID(ctx context.Context, linkID int64, lastN int) (*model.Analytics, error)
	Aggregate(ctx context.Context, linkIDs []int64) (*model.AggregateStats, error)
}

// JobDispatcher 后台任务派发，由 *dispatcher.Dispatcher 实现
type JobDispatcher interface {
	Submit(job dispatcher.Job) bool
}

// Options 短链应用层配置
type Options struct {
	BaseURL   string
	ShortURL  config.ShortURLConfig
	Analytics config.AnalyticsConfig
	Reaper    config.ReaperConfig
}

// Deps 应用层依赖
type Deps struct {
	DB         *gorm.DB
	Cache      LinkCache
	Analytics  AnalyticsStore
	Dispatcher JobDispatcher
	Geo        service.GeoLookup
}

// App 短网址组件应用层
type App struct {
	LinkService *service.LinkService
	cache       LinkCache
	analytics   AnalyticsStore
	dispatcher  JobDispatcher
	geo         service.GeoLookup
	opts        Options
	now         func() time.Time
	log         *logger.Log
	err         *errorc.ErrorBuilder
}

// NewApp 创建短网址组件应用层实例
func NewApp(deps Deps, opts Options) *App {
	log := logger.GetLogger().WithEntryName("ShortURLApp")

	if opts.ShortURL.LinkCacheTTL <= 0 || opts.ShortURL.ListCacheTTL <= 0 {
		defaults := config.DefaultShortURLConfig()
		if opts.ShortURL.LinkCacheTTL <= 0 {
			opts.ShortURL.LinkCacheTTL = defaults.LinkCacheTTL
		}
		if opts.ShortURL.ListCacheTTL <= 0 {
			opts.ShortURL.ListCacheTTL = defaults.ListCacheTTL
		}
	}
	if opts.ShortURL.LookupTimeout <= 0 {
		opts.ShortURL.LookupTimeout = 2 * time.Second
	}
	if opts.Analytics.MaxEvents <= 0 {
		opts.Analytics.MaxEvents = 1000
	}
	if opts.Reaper.BatchSize <= 0 {
		opts.Reaper.BatchSize = 500
	}

	linkDao := dao.NewLinkDao(deps.DB, log)
	return &App{
		LinkService: service.NewLinkService(linkDao, log),
		cache:       deps.Cache,
		analytics:   deps.Analytics,
		dispatcher:  deps.Dispatcher,
		geo:         deps.Geo,
		opts:        opts,
		now:         time.Now,
		log:         log,
		err:         errorc.NewErrorBuilder("ShortURLApp"),
	}
}

// ShortURL 短码对应的完整访问地址
func (a *App) ShortURL(code string) string {
	return a.opts.BaseURL + "/" + code
}

// invalidate 删除缓存失败只记录日志，缓存最多在 TTL 内陈旧
func (a *App) invalidate(ctx context.Context, keys ...string) {
	if err := a.cache.Invalidate(ctx, keys...); err != nil {
		a.log.WithTrace(ctx).WithErr(err).WithField("keys", keys).Warn("清除缓存失败")
	}
}
