package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shortlink/pkg/core/config"
	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/dispatcher"
	"shortlink/system/shorturl/internal/cache"
	"shortlink/system/shorturl/internal/model"
	"shortlink/system/shorturl/internal/testutil"

	jsoniter "github.com/json-iterator/go"
	"gorm.io/gorm"
)

var errCacheDown = errors.New("redis: connection refused")

// memCache 以 JSON 快照保存的内存缓存，down 为 true 时模拟 redis 不可用
type memCache struct {
	mu          sync.Mutex
	items       map[string][]byte
	down        bool
	hits        int
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (m *memCache) Get(ctx context.Context, code string) (*model.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errCacheDown
	}
	b, ok := m.items[cache.LinkKey(code)]
	if !ok {
		return nil, cache.ErrMiss
	}
	m.hits++
	return cache.UnmarshalLink(b)
}

func (m *memCache) Set(ctx context.Context, link *model.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errCacheDown
	}
	b, err := cache.MarshalLink(link)
	if err != nil {
		return err
	}
	m.items[cache.LinkKey(link.ShortCode)] = b
	return nil
}

func (m *memCache) Invalidate(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, keys...)
	if m.down {
		return errCacheDown
	}
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *memCache) Once(ctx context.Context, key string, ttl time.Duration, value interface{}, load func() (interface{}, error)) error {
	m.mu.Lock()
	if m.down {
		m.mu.Unlock()
		return errCacheDown
	}
	b, ok := m.items[key]
	m.mu.Unlock()

	if !ok {
		v, err := load()
		if err != nil {
			return err
		}
		if b, err = jsoniter.Marshal(v); err != nil {
			return err
		}
		m.mu.Lock()
		m.items[key] = b
		m.mu.Unlock()
	}
	return jsoniter.Unmarshal(b, value)
}

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

// memAnalytics 内存统计，按 eventId 去重
type memAnalytics struct {
	mu     sync.Mutex
	docs   map[int64]*model.Analytics
	seen   map[string]bool
	failed int
}

func newMemAnalytics() *memAnalytics {
	return &memAnalytics{docs: map[int64]*model.Analytics{}, seen: map[string]bool{}}
}

func (m *memAnalytics) RecordRedirect(ctx context.Context, linkID int64, ev *model.RedirectEvent, maxEvents int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed > 0 {
		m.failed--
		return errors.New("mongo unavailable")
	}
	if m.seen[ev.EventID] {
		return nil
	}
	m.seen[ev.EventID] = true

	doc, ok := m.docs[linkID]
	if !ok {
		doc = &model.Analytics{
			ShortURLID:   linkID,
			DailyStats:   map[string]int64{},
			DeviceStats:  map[string]int64{},
			BrowserStats: map[string]int64{},
			CountryStats: map[string]int64{},
		}
		m.docs[linkID] = doc
	}
	doc.RedirectCount++
	doc.DeviceStats[ev.UserAgent.Device]++
	doc.BrowserStats[ev.UserAgent.Browser]++
	doc.CountryStats[ev.Geolocation.Country]++
	doc.DailyStats[ev.Timestamp.Format("2006-01-02")]++
	doc.Redirects = append(doc.Redirects, *ev)
	if len(doc.Redirects) > maxEvents {
		doc.Redirects = doc.Redirects[len(doc.Redirects)-maxEvents:]
	}
	ts := ev.Timestamp
	doc.LastAccessed = &ts
	return nil
}

func (m *memAnalytics) FindByLinkID(ctx context.Context, linkID int64, lastN int) (*model.Analytics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[linkID]
	if !ok {
		return nil, errorc.NewErrorBuilder("memAnalytics").NotFound("统计数据不存在")
	}
	cp := *doc
	if len(cp.Redirects) > lastN {
		cp.Redirects = cp.Redirects[len(cp.Redirects)-lastN:]
	}
	return &cp, nil
}

func (m *memAnalytics) Aggregate(ctx context.Context, linkIDs []int64) (*model.AggregateStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &model.AggregateStats{ByDate: []model.KeyCount{}, ByOS: []model.KeyCount{}, ByDevice: []model.KeyCount{}}
	ips := map[string]bool{}
	for _, id := range linkIDs {
		if doc, ok := m.docs[id]; ok {
			for _, ev := range doc.Redirects {
				stats.TotalClicks++
				ips[ev.IPAddress] = true
			}
		}
	}
	stats.UniqueUsers = int64(len(ips))
	return stats, nil
}

func (m *memAnalytics) doc(linkID int64) *model.Analytics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[linkID]
}

// inlineDispatcher 同步执行任务
type inlineDispatcher struct {
	mu   sync.Mutex
	jobs []string
	errs []error
}

func (d *inlineDispatcher) Submit(job dispatcher.Job) bool {
	err := job.Run(context.Background())
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job.Name)
	if err != nil {
		d.errs = append(d.errs, err)
	}
	return true
}

type testEnv struct {
	app       *App
	db        *gorm.DB
	cache     *memCache
	analytics *memAnalytics
	now       time.Time
}

func newTestEnv(t *testing.T, d JobDispatcher) *testEnv {
	t.Helper()
	if d == nil {
		d = &inlineDispatcher{}
	}
	env := &testEnv{
		db:        testutil.NewSqliteDB(t),
		cache:     newMemCache(),
		analytics: newMemAnalytics(),
		now:       time.Now().UTC(),
	}
	env.app = NewApp(Deps{
		DB:         env.db,
		Cache:      env.cache,
		Analytics:  env.analytics,
		Dispatcher: d,
	}, Options{
		BaseURL:   "http://sho.rt",
		ShortURL:  config.DefaultShortURLConfig(),
		Analytics: config.DefaultAnalyticsConfig(),
		Reaper:    config.ReaperConfig{BatchSize: 2},
	})
	env.app.now = func() time.Time { return env.now }
	return env
}
