package app

import (
	"context"

	errorc "shortlink/pkg/core/err"
	"shortlink/system/shorturl/internal/cache"
	"shortlink/system/shorturl/internal/model"
	"shortlink/utils"
)

// recentEvents 单链统计返回的最近事件数
const recentEvents = 50

// LinkAnalytics 单个短链的统计
type LinkAnalytics struct {
	ShortURLID    int64                 `json:"shortUrlId"`
	ShortCode     string                `json:"shortCode"`
	Clicks        int64                 `json:"clicks"`
	RedirectCount int64                 `json:"redirectCount"`
	DailyStats    map[string]int64      `json:"dailyStats"`
	DeviceStats   map[string]int64      `json:"deviceStats"`
	BrowserStats  map[string]int64      `json:"browserStats"`
	CountryStats  map[string]int64      `json:"countryStats"`
	Redirects     []model.RedirectEvent `json:"redirects"`
}

// GetLinkAnalytics 单个短链统计，仅限所有者，结果缓存在 analytics:url:{id}
func (a *App) GetLinkAnalytics(ctx context.Context, ownerID, linkID int64) (*LinkAnalytics, error) {
	link, err := a.ownedLink(ctx, ownerID, linkID)
	if err != nil {
		return nil, err
	}

	load := func() (interface{}, error) {
		result := &LinkAnalytics{
			ShortURLID:   link.ID,
			ShortCode:    link.ShortCode,
			Clicks:       link.Clicks,
			DailyStats:   map[string]int64{},
			DeviceStats:  map[string]int64{},
			BrowserStats: map[string]int64{},
			CountryStats: map[string]int64{},
			Redirects:    []model.RedirectEvent{},
		}

		doc, err := a.analytics.FindByLinkID(ctx, link.ID, recentEvents)
		if err != nil {
			// 还没有任何跳转
			if errorc.IsNotFound(err) {
				return result, nil
			}
			return nil, err
		}
		result.RedirectCount = doc.RedirectCount
		mergeCounts(result.DailyStats, doc.DailyStats)
		mergeCounts(result.DeviceStats, doc.DeviceStats)
		mergeCounts(result.BrowserStats, doc.BrowserStats)
		mergeCounts(result.CountryStats, doc.CountryStats)
		if doc.Redirects != nil {
			result.Redirects = doc.Redirects
		}
		return result, nil
	}

	var result LinkAnalytics
	if err = a.readThrough(ctx, cache.AnalyticsKey(linkID), &result, load); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTopicAnalytics 用户某主题下所有短链的聚合统计
func (a *App) GetTopicAnalytics(ctx context.Context, ownerID int64, topic string) (*model.AggregateStats, error) {
	topic = utils.NormalizeTopic(topic)
	ids, err := a.LinkService.Dao.ListIDsByOwner(ctx, ownerID, topic)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, a.err.New("该主题下没有短链接", nil).NotFound()
	}
	return a.aggregate(ctx, ids)
}

// GetOverallAnalytics 用户所有短链的聚合统计
func (a *App) GetOverallAnalytics(ctx context.Context, ownerID int64) (*model.AggregateStats, error) {
	ids, err := a.LinkService.Dao.ListIDsByOwner(ctx, ownerID, "")
	if err != nil {
		return nil, err
	}
	return a.aggregate(ctx, ids)
}

// GetCodeAnalytics 按短码聚合统计，仅限所有者
func (a *App) GetCodeAnalytics(ctx context.Context, ownerID int64, code string) (*model.AggregateStats, error) {
	link, err := a.LinkService.Dao.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if link.OwnerID != ownerID {
		return nil, a.err.New("无权访问该短链接", nil).Forbidden()
	}
	return a.aggregate(ctx, []int64{link.ID})
}

func (a *App) aggregate(ctx context.Context, ids []int64) (*model.AggregateStats, error) {
	stats, err := a.analytics.Aggregate(ctx, ids)
	if err != nil {
		return nil, a.err.New("聚合统计失败", err).Unavailable()
	}
	return stats, nil
}

func mergeCounts(dst, src map[string]int64) {
	for k, v := range src {
		dst[k] = v
	}
}
