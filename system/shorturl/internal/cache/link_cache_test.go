package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"shortlink/pkg/core/config"
	"shortlink/system/shorturl/internal/model"
	"shortlink/system/shorturl/internal/testutil"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "url:promo1", LinkKey("promo1"))
	assert.Equal(t, "urls:7", OwnerListKey(7))
	assert.Equal(t, "urls:7:topic:news", OwnerTopicKey(7, "news"))
	assert.Equal(t, "analytics:url:9", AnalyticsKey(9))
}

func TestLinkCacheRoundTrip(t *testing.T) {
	rdb := testutil.NewRedis(t)
	c := NewLinkCache(config.InitCache(rdb, 0), time.Hour)
	ctx := context.Background()

	_, err := c.Get(ctx, "promo1")
	assert.True(t, errors.Is(err, ErrMiss))

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	link := &model.ShortLink{OriginalURL: "https://example.com", ShortCode: "promo1", IsActive: true, ExpiresAt: &expires}
	link.ID = 11
	require.NoError(t, c.Set(ctx, link))

	ttl, err := rdb.TTL(ctx, "url:promo1").Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	got, err := c.Get(ctx, "promo1")
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
	assert.Equal(t, link.OriginalURL, got.OriginalURL)
	assert.True(t, got.ExpiresAt.Equal(expires))

	require.NoError(t, c.Invalidate(ctx, LinkKey("promo1"), LinkKey("absent")))
	_, err = c.Get(ctx, "promo1")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestLinkCacheKeepsHiddenFields(t *testing.T) {
	c := NewLinkCache(config.InitCache(nil, 100), time.Hour)
	ctx := context.Background()

	now := time.Now().UTC()
	expires := now.Add(time.Hour)
	accessed := now.Add(-time.Minute)
	alias := "promo1"
	link := &model.ShortLink{
		OriginalURL:     "https://example.com/a",
		URLHash:         model.HashURL("https://example.com/a"),
		ShortCode:       alias,
		CustomAlias:     &alias,
		Topic:           "news",
		OwnerID:         7,
		Clicks:          3,
		LastAccessed:    &accessed,
		IsActive:        true,
		ExpiresAt:       &expires,
		CreatedFrom:     model.CreatedFromAPI,
		ClientIP:        "1.2.3.4",
		ClientUserAgent: "curl/8.0",
	}
	link.ID = 11
	link.CreatedAt = now
	link.UpdatedAt = now

	require.NoError(t, c.Set(ctx, link))
	got, err := c.Get(ctx, alias)
	require.NoError(t, err)
	assert.Equal(t, link, got)
}

func TestMarshalLinkRoundTrip(t *testing.T) {
	link := &model.ShortLink{OriginalURL: "https://example.com/b", URLHash: "abc", ShortCode: "b1234", ClientIP: "5.6.7.8"}
	b, err := MarshalLink(link)
	require.NoError(t, err)
	got, err := UnmarshalLink(b)
	require.NoError(t, err)
	assert.Equal(t, link, got)
}

func TestLinkCacheOnce(t *testing.T) {
	rdb := testutil.NewRedis(t)
	c := NewLinkCache(config.InitCache(rdb, 0), time.Hour)
	ctx := context.Background()

	calls := 0
	load := func() (interface{}, error) {
		calls++
		return []string{"a", "b"}, nil
	}
	for i := 0; i < 3; i++ {
		var out []string
		require.NoError(t, c.Once(ctx, OwnerListKey(1), time.Minute, &out, load))
		assert.Equal(t, []string{"a", "b"}, out)
	}
	assert.Equal(t, 1, calls)
}

func TestLinkCacheRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	c := NewLinkCache(config.InitCache(rdb, 0), time.Hour)
	ctx := context.Background()

	_, err := c.Get(ctx, "promo1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMiss))

	// 读穿缓存在 redis 不可用时仍返回加载结果
	var out []string
	err = c.Once(ctx, OwnerListKey(1), time.Minute, &out, func() (interface{}, error) {
		return []string{"x"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, out)
}
