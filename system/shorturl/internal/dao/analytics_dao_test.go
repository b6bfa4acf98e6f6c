package dao

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/system/shorturl/internal/model"
	"shortlink/system/shorturl/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent(device, browser, country, ip string) *model.RedirectEvent {
	return &model.RedirectEvent{
		EventID:     uuid.NewString(),
		Timestamp:   time.Now(),
		UserAgent:   model.UserAgentInfo{Browser: browser, OS: "iOS", Device: device},
		Geolocation: model.Geolocation{Country: country},
		IPAddress:   ip,
	}
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "Mobile_Safari", SanitizeKey("Mobile.Safari"))
	assert.Equal(t, "_where", SanitizeKey("$where"))
	assert.Equal(t, model.Unknown, SanitizeKey(""))
}

func TestRecordRedirect(t *testing.T) {
	db := testutil.NewMongo(t)
	d := NewAnalyticsDao(db, logger.GetLogger())
	ctx := context.Background()
	require.NoError(t, d.EnsureIndexes(ctx))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev := newEvent(model.DeviceMobile, "Safari", "US", fmt.Sprintf("10.0.0.%d", i%5))
			assert.NoError(t, d.RecordRedirect(ctx, 1, ev, 1000))
		}(i)
	}
	wg.Wait()

	doc, err := d.FindByLinkID(ctx, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(n), doc.RedirectCount)
	assert.Equal(t, int64(n), doc.DeviceStats[model.DeviceMobile])
	assert.Equal(t, int64(n), doc.BrowserStats["Safari"])
	assert.Equal(t, int64(n), doc.CountryStats["US"])
	assert.Len(t, doc.Redirects, n)
	assert.Equal(t, int64(n), doc.DailyStats[time.Now().UTC().Format("2006-01-02")])

	stats, err := d.Aggregate(ctx, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, int64(n), stats.TotalClicks)
	assert.Equal(t, int64(5), stats.UniqueUsers)
	require.Len(t, stats.ByDevice, 1)
	assert.Equal(t, model.DeviceMobile, stats.ByDevice[0].Key)

	_, err = d.FindByLinkID(ctx, 404, 50)
	assert.True(t, errorc.IsNotFound(err))

	empty, err := d.Aggregate(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalClicks)
}

func TestRecordRedirectIdempotentRetry(t *testing.T) {
	db := testutil.NewMongo(t)
	d := NewAnalyticsDao(db, logger.GetLogger())
	ctx := context.Background()
	require.NoError(t, d.EnsureIndexes(ctx))

	ev := newEvent(model.DeviceDesktop, "Chrome", "DE", "1.2.3.4")
	require.NoError(t, d.RecordRedirect(ctx, 2, ev, 1000))
	// 重试同一事件
	require.NoError(t, d.RecordRedirect(ctx, 2, ev, 1000))

	doc, err := d.FindByLinkID(ctx, 2, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.RedirectCount)
	assert.Len(t, doc.Redirects, 1)
}

func TestRecordRedirectCapsEvents(t *testing.T) {
	db := testutil.NewMongo(t)
	d := NewAnalyticsDao(db, logger.GetLogger())
	ctx := context.Background()
	require.NoError(t, d.EnsureIndexes(ctx))

	for i := 0; i < 5; i++ {
		require.NoError(t, d.RecordRedirect(ctx, 3, newEvent(model.DeviceOther, "Unknown", "Unknown", "9.9.9.9"), 3))
	}
	doc, err := d.FindByLinkID(ctx, 3, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(5), doc.RedirectCount)
	assert.Len(t, doc.Redirects, 3)
}
