package app

import (
	"context"
	"testing"

	errorc "shortlink/pkg/core/err"
	"shortlink/system/shorturl/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLinkAnalytics(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	link := createLink(t, env, "stats1", nil)

	empty, err := env.app.GetLinkAnalytics(ctx, 1, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.RedirectCount)
	assert.NotNil(t, empty.Redirects)
	assert.NotNil(t, empty.DeviceStats)

	require.NoError(t, env.cache.Invalidate(ctx, cache.AnalyticsKey(link.ID)))
	_, err = env.app.Redirect(ctx, &RedirectRequest{Code: "stats1", UserAgent: iphoneUA, IP: "1.2.3.4"})
	require.NoError(t, err)

	stats, err := env.app.GetLinkAnalytics(ctx, 1, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.RedirectCount)
	assert.Equal(t, "stats1", stats.ShortCode)
	assert.Len(t, stats.Redirects, 1)
	assert.True(t, env.cache.has(cache.AnalyticsKey(link.ID)))

	// 缓存期内不会看到新的跳转
	_, err = env.app.Redirect(ctx, &RedirectRequest{Code: "stats1"})
	require.NoError(t, err)
	cached, err := env.app.GetLinkAnalytics(ctx, 1, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.RedirectCount)

	_, err = env.app.GetLinkAnalytics(ctx, 2, link.ID)
	assert.True(t, errorc.HasCode(err, errorc.ErrorCodeForbidden))

	_, err = env.app.GetLinkAnalytics(ctx, 1, 12345)
	assert.True(t, errorc.IsNotFound(err))
}

func TestAggregateAnalytics(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, _, err := env.app.CreateShortLink(ctx, &CreateShortLinkRequest{OriginalURL: "https://a.example.com", CustomAlias: "topic-a", Topic: "news", OwnerID: 1})
	require.NoError(t, err)
	_, _, err = env.app.CreateShortLink(ctx, &CreateShortLinkRequest{OriginalURL: "https://b.example.com", CustomAlias: "topic-b", Topic: "sport", OwnerID: 1})
	require.NoError(t, err)
	_, _, err = env.app.CreateShortLink(ctx, &CreateShortLinkRequest{OriginalURL: "https://c.example.com", CustomAlias: "other-c", OwnerID: 2})
	require.NoError(t, err)

	for _, r := range []RedirectRequest{
		{Code: "topic-a", IP: "1.1.1.1"},
		{Code: "topic-a", IP: "2.2.2.2"},
		{Code: "topic-b", IP: "1.1.1.1"},
		{Code: "other-c", IP: "3.3.3.3"},
	} {
		r := r
		_, err = env.app.Redirect(ctx, &r)
		require.NoError(t, err)
	}

	news, err := env.app.GetTopicAnalytics(ctx, 1, "News")
	require.NoError(t, err)
	assert.Equal(t, int64(2), news.TotalClicks)
	assert.Equal(t, int64(2), news.UniqueUsers)

	overall, err := env.app.GetOverallAnalytics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), overall.TotalClicks)
	assert.Equal(t, int64(2), overall.UniqueUsers)

	byCode, err := env.app.GetCodeAnalytics(ctx, 1, "topic-b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), byCode.TotalClicks)

	_, err = env.app.GetCodeAnalytics(ctx, 1, "other-c")
	assert.True(t, errorc.HasCode(err, errorc.ErrorCodeForbidden))

	_, err = env.app.GetTopicAnalytics(ctx, 1, "missing")
	assert.True(t, errorc.IsNotFound(err))

	none, err := env.app.GetOverallAnalytics(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), none.TotalClicks)
}
