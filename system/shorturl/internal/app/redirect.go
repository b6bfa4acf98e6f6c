package app

import (
	"context"
	"errors"
	"strings"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/util"
	"shortlink/pkg/dispatcher"
	"shortlink/system/shorturl/internal/cache"
	"shortlink/system/shorturl/internal/model"
	"shortlink/system/shorturl/internal/service"

	"github.com/google/uuid"
)

// RedirectRequest 一次跳转请求携带的访问信息
type RedirectRequest struct {
	Code      string
	IP        string
	UserAgent string
	Referrer  string
	Language  string
}

// ResolveShortLink 查缓存，未命中查库，再判断可访问性。
// 只缓存可访问的短链；缓存异常按未命中处理；库查询失败返回 503 而不是 404。
// 缓存和数据库各自使用 lookup-timeout
func (a *App) ResolveShortLink(ctx context.Context, code string) (*model.ShortLink, error) {
	cacheCtx, cancel := context.WithTimeout(ctx, a.opts.ShortURL.LookupTimeout)
	defer cancel()

	now := a.now()
	link, err := a.cache.Get(cacheCtx, code)
	switch {
	case err == nil:
		if !link.IsResolvable(now) {
			// 快照在 TTL 内过期，删掉避免重复命中
			a.invalidate(ctx, cache.LinkKey(code))
		}
	case errors.Is(err, cache.ErrMiss):
		link, err = a.loadLink(ctx, code)
		if err != nil {
			return nil, err
		}
	default:
		a.log.WithTrace(ctx).WithErr(err).WithField("code", code).Warn("读取缓存失败，降级查库")
		link, err = a.loadLink(ctx, code)
		if err != nil {
			return nil, err
		}
	}

	if !link.IsActive {
		return nil, a.err.New("短链接已停用", nil).Gone()
	}
	if link.IsExpired(now) {
		return nil, a.err.New("短链接已过期", nil).Gone()
	}
	return link, nil
}

// loadLink 查库并回填缓存
func (a *App) loadLink(ctx context.Context, code string) (*model.ShortLink, error) {
	storeCtx, cancel := context.WithTimeout(ctx, a.opts.ShortURL.LookupTimeout)
	defer cancel()

	link, err := a.LinkService.Dao.FindByCode(storeCtx, code)
	if err != nil {
		if errorc.IsNotFound(err) {
			return nil, a.err.New("短链接不存在", err).NotFound()
		}
		return nil, a.err.New("查询短链接失败", err).Unavailable()
	}

	if link.IsResolvable(a.now()) {
		setCtx, cancelSet := context.WithTimeout(ctx, a.opts.ShortURL.LookupTimeout)
		defer cancelSet()
		if err = a.cache.Set(setCtx, link); err != nil {
			a.log.WithTrace(ctx).WithErr(err).WithField("code", code).Warn("写入短链缓存失败")
		}
	}
	return link, nil
}

// Redirect 解析短码并返回跳转地址，点击计数和访问统计作为两个独立的后台任务派发
func (a *App) Redirect(ctx context.Context, req *RedirectRequest) (string, error) {
	link, err := a.ResolveShortLink(ctx, req.Code)
	if err != nil {
		return "", err
	}
	a.dispatchRedirect(ctx, link, req)
	return link.OriginalURL, nil
}

func (a *App) dispatchRedirect(ctx context.Context, link *model.ShortLink, req *RedirectRequest) {
	jobCtx := util.Detach(ctx)
	at := a.now()
	linkID := link.ID

	a.dispatcher.Submit(dispatcher.Job{
		Name: "increment-clicks",
		Ctx:  jobCtx,
		Run: func(ctx context.Context) error {
			return a.LinkService.Dao.IncrementClicks(ctx, linkID, at)
		},
	})

	// eventId 在派发前确定，重试时保持不变
	eventID := uuid.NewString()
	ip, userAgent, referrer, language := req.IP, req.UserAgent, req.Referrer, primaryLanguage(req.Language)
	a.dispatcher.Submit(dispatcher.Job{
		Name: "record-analytics",
		Ctx:  jobCtx,
		Run: func(ctx context.Context) error {
			ua, geo := service.Classify(ip, userAgent, a.geo)
			ev := &model.RedirectEvent{
				EventID:     eventID,
				Timestamp:   at.UTC(),
				UserAgent:   ua,
				Geolocation: geo,
				IPAddress:   ip,
				Referrer:    orUnknown(referrer),
				Language:    orUnknown(language),
			}
			return a.analytics.RecordRedirect(ctx, linkID, ev, a.opts.Analytics.MaxEvents)
		},
	})
}

// primaryLanguage Accept-Language 的第一个语言
func primaryLanguage(header string) string {
	first := strings.SplitN(header, ",", 2)[0]
	first = strings.SplitN(first, ";", 2)[0]
	return strings.TrimSpace(first)
}

func orUnknown(s string) string {
	if s == "" {
		return model.Unknown
	}
	return s
}

