package cache

import (
	"context"
	"errors"
	"time"

	errorc "shortlink/pkg/core/err"
	"shortlink/system/shorturl/internal/model"

	"github.com/go-redis/cache/v9"
)

// ErrMiss 缓存未命中
var ErrMiss = cache.ErrCacheMiss

const linkKeyPrefix = "url:"

// LinkKey 短码对应的缓存键
func LinkKey(code string) string {
	return linkKeyPrefix + code
}

// OwnerListKey 用户短链列表缓存键
func OwnerListKey(ownerID int64) string {
	return "urls:" + itoa(ownerID)
}

// OwnerTopicKey 用户某主题短链列表缓存键
func OwnerTopicKey(ownerID int64, topic string) string {
	return "urls:" + itoa(ownerID) + ":topic:" + topic
}

// AnalyticsKey 单个短链统计缓存键
func AnalyticsKey(linkID int64) string {
	return "analytics:url:" + itoa(linkID)
}

// LinkCache 短码到短链快照的旁路缓存，何时写入和失效由调用方决定
type LinkCache struct {
	c   *cache.Cache
	ttl time.Duration
	err *errorc.ErrorBuilder
}

func NewLinkCache(c *cache.Cache, ttl time.Duration) *LinkCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LinkCache{
		c:   c,
		ttl: ttl,
		err: errorc.NewErrorBuilder("LinkCache"),
	}
}

// Get 未命中返回 ErrMiss，其他错误表示缓存不可用
func (l *LinkCache) Get(ctx context.Context, code string) (*model.ShortLink, error) {
	var snap linkSnapshot
	if err := l.c.Get(ctx, LinkKey(code), &snap); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrMiss
		}
		return nil, l.err.New("读取短链缓存失败", err).Third()
	}
	return snap.toLink(), nil
}

func (l *LinkCache) Set(ctx context.Context, link *model.ShortLink) error {
	err := l.c.Set(&cache.Item{
		Ctx:   ctx,
		Key:   LinkKey(link.ShortCode),
		Value: toSnapshot(link),
		TTL:   l.ttl,
	})
	if err != nil {
		return l.err.New("写入短链缓存失败", err).Third()
	}
	return nil
}

// Invalidate 删除一个或多个缓存键
func (l *LinkCache) Invalidate(ctx context.Context, keys ...string) error {
	var firstErr error
	for _, key := range keys {
		if err := l.c.Delete(ctx, key); err != nil && !errors.Is(err, cache.ErrCacheMiss) && firstErr == nil {
			firstErr = l.err.New("删除缓存失败", err).Third()
		}
	}
	return firstErr
}

// Once 缓存读穿，未命中时调用 load 并写入缓存
func (l *LinkCache) Once(ctx context.Context, key string, ttl time.Duration, value interface{}, load func() (interface{}, error)) error {
	return l.c.Once(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: value,
		TTL:   ttl,
		Do: func(*cache.Item) (interface{}, error) {
			return load()
		},
	})
}
