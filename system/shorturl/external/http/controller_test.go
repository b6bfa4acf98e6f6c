package http

import (
	"context"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"shortlink/pkg/core/config"
	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/security"
	"shortlink/pkg/core/start"
	"shortlink/pkg/dispatcher"
	internalapp "shortlink/system/shorturl/internal/app"
	"shortlink/system/shorturl/internal/cache"
	"shortlink/system/shorturl/internal/model"
	"shortlink/system/shorturl/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

// countingAnalytics 只记录跳转次数
type countingAnalytics struct {
	mu    sync.Mutex
	count map[int64]int64
}

func (c *countingAnalytics) RecordRedirect(ctx context.Context, linkID int64, ev *model.RedirectEvent, maxEvents int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count[linkID]++
	return nil
}

func (c *countingAnalytics) FindByLinkID(ctx context.Context, linkID int64, lastN int) (*model.Analytics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.count[linkID]
	if !ok {
		return nil, errorc.NewErrorBuilder("countingAnalytics").NotFound("统计数据不存在")
	}
	return &model.Analytics{ShortURLID: linkID, RedirectCount: n}, nil
}

func (c *countingAnalytics) Aggregate(ctx context.Context, linkIDs []int64) (*model.AggregateStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := &model.AggregateStats{}
	for _, id := range linkIDs {
		stats.TotalClicks += c.count[id]
	}
	return stats, nil
}

func (c *countingAnalytics) of(linkID int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count[linkID]
}

// syncDispatcher 在请求协程内直接执行任务
type syncDispatcher struct{}

func (syncDispatcher) Submit(job dispatcher.Job) bool {
	_ = job.Run(context.Background())
	return true
}

type testServer struct {
	fiber     *fiber.App
	db        *gorm.DB
	analytics *countingAnalytics
	auth      *security.UserAuth
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewSqliteDB(t)
	analytics := &countingAnalytics{count: map[int64]int64{}}
	app := internalapp.NewApp(internalapp.Deps{
		DB:         db,
		Cache:      cache.NewLinkCache(config.InitCache(nil, 1000), time.Hour),
		Analytics:  analytics,
		Dispatcher: syncDispatcher{},
	}, internalapp.Options{
		BaseURL:  "http://sho.rt",
		ShortURL: config.DefaultShortURLConfig(),
	})

	auth := security.NewUserAuth([]byte("test-secret"), time.Hour)
	guards := Guards{Auth: auth.RequireAuth()}

	f := start.GetApp("shortlink-test", nil)
	NewShortURLController(app, guards).RegisterRoutes(f)
	NewAnalyticsController(app, guards).RegisterRoutes(f)
	NewRedirectController(app).RegisterRoutes(f)

	return &testServer{fiber: f, db: db, analytics: analytics, auth: auth}
}

func (s *testServer) token(t *testing.T, userID int64) string {
	token, _, err := s.auth.CreateSimpleToken(userID, "tester")
	require.NoError(t, err)
	return token
}

// do 发起请求，返回状态码、响应体和 Location 头
func (s *testServer) do(t *testing.T, method, path, token, body string) (int, []byte, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	req.Header.Set(fiber.HeaderUserAgent, "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148 Safari/604.1")

	resp, err := s.fiber.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data, resp.Header.Get(fiber.HeaderLocation)
}

func TestShortenAndRedirect(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, 7)

	status, body, _ := s.do(t, fiber.MethodPost, "/shorten", token, `{"originalUrl":"https://example.com/promo","customAlias":"promo1","topic":"Marketing"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	assert.Equal(t, int64(201), gjson.GetBytes(body, "status").Int())
	assert.Equal(t, "promo1", gjson.GetBytes(body, "data.shortCode").String())
	assert.Equal(t, "http://sho.rt/promo1", gjson.GetBytes(body, "data.shortUrl").String())
	assert.Equal(t, "marketing", gjson.GetBytes(body, "data.topic").String())
	linkID := gjson.GetBytes(body, "data.id").Int()

	status, _, location := s.do(t, fiber.MethodGet, "/promo1", "", "")
	assert.Equal(t, fiber.StatusFound, status)
	assert.Equal(t, "https://example.com/promo", location)

	var link model.ShortLink
	require.NoError(t, s.db.First(&link, linkID).Error)
	assert.Equal(t, int64(1), link.Clicks)
	assert.Equal(t, int64(1), s.analytics.of(linkID))

	status, body, _ = s.do(t, fiber.MethodGet, "/analytics/url/"+strconv.FormatInt(linkID, 10), token, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, int64(1), gjson.GetBytes(body, "data.redirectCount").Int())
}

func TestShortenDedupAndConflict(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, 7)

	status, body, _ := s.do(t, fiber.MethodPost, "/shorten", token, `{"longUrl":"https://example.com/a"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	code := gjson.GetBytes(body, "data.shortCode").String()
	assert.Len(t, code, 7)

	status, body, _ = s.do(t, fiber.MethodPost, "/shorten", token, `{"originalUrl":"https://example.com/a"}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, code, gjson.GetBytes(body, "data.shortCode").String())

	status, _, _ = s.do(t, fiber.MethodPost, "/shorten", token, `{"originalUrl":"https://example.com/b","customAlias":"taken1"}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, body, _ = s.do(t, fiber.MethodPost, "/shorten", s.token(t, 8), `{"originalUrl":"https://example.com/c","customAlias":"taken1"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, int64(409), gjson.GetBytes(body, "status").Int())
}

func TestConcurrentAliasCreate(t *testing.T) {
	s := newTestServer(t)

	var wg sync.WaitGroup
	statuses := make([]int, 2)
	for i := range statuses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i], _, _ = s.do(t, fiber.MethodPost, "/shorten", s.token(t, int64(10+i)), `{"originalUrl":"https://example.com/x","customAlias":"xalias"}`)
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{fiber.StatusCreated, fiber.StatusConflict}, statuses)
}

func TestShortenInvalidInput(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, 7)

	tests := []struct {
		name string
		body string
	}{
		{"非http地址", `{"originalUrl":"ftp://example.com/file"}`},
		{"缺少地址", `{"topic":"news"}`},
		{"别名过短", `{"originalUrl":"https://example.com","customAlias":"ab"}`},
		{"别名含非法字符", `{"originalUrl":"https://example.com","customAlias":"bad alias"}`},
		{"保留字别名", `{"originalUrl":"https://example.com","customAlias":"my-urls"}`},
		{"过期时间已过", `{"originalUrl":"https://example.com","expiresAt":"2001-01-01T00:00:00Z"}`},
		{"非法JSON", `{"originalUrl":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := s.do(t, fiber.MethodPost, "/shorten", token, tt.body)
			assert.Equal(t, fiber.StatusBadRequest, status, string(body))
		})
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/my-urls", "/by-topic/news", "/analytics/overall"} {
		status, _, _ := s.do(t, fiber.MethodGet, path, "", "")
		assert.Equal(t, fiber.StatusUnauthorized, status, path)
	}
	status, _, _ := s.do(t, fiber.MethodPost, "/shorten", "", `{"originalUrl":"https://example.com"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRedirectNotFoundAndGone(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, 7)

	status, _, _ := s.do(t, fiber.MethodGet, "/nope123", "", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body, _ := s.do(t, fiber.MethodPost, "/shorten", token, `{"originalUrl":"https://example.com/off","customAlias":"offline"}`)
	require.Equal(t, fiber.StatusCreated, status)
	id := gjson.GetBytes(body, "data.id").String()

	status, _, _ = s.do(t, fiber.MethodGet, "/offline", "", "")
	require.Equal(t, fiber.StatusFound, status)

	status, body, _ = s.do(t, fiber.MethodPatch, "/urls/"+id, token, `{"isActive":false}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.False(t, gjson.GetBytes(body, "data.isActive").Bool())

	status, _, _ = s.do(t, fiber.MethodGet, "/offline", "", "")
	assert.Equal(t, fiber.StatusGone, status)

	status, _, _ = s.do(t, fiber.MethodGet, "/api/shorten/offline", "", "")
	assert.Equal(t, fiber.StatusGone, status)

	status, _, _ = s.do(t, fiber.MethodPatch, "/urls/"+id, s.token(t, 99), `{"isActive":true}`)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestListingRoutesNotShadowed(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, 7)

	for _, body := range []string{
		`{"originalUrl":"https://example.com/1","topic":"news"}`,
		`{"originalUrl":"https://example.com/2","topic":"news"}`,
		`{"originalUrl":"https://example.com/3"}`,
	} {
		status, _, _ := s.do(t, fiber.MethodPost, "/shorten", token, body)
		require.Equal(t, fiber.StatusCreated, status)
	}

	status, body, _ := s.do(t, fiber.MethodGet, "/my-urls", token, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, int64(3), gjson.GetBytes(body, "data.total").Int())

	status, body, _ = s.do(t, fiber.MethodGet, "/by-topic/NEWS", token, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, "news", gjson.GetBytes(body, "data.topic").String())
	assert.Equal(t, int64(2), gjson.GetBytes(body, "data.total").Int())

	status, body, _ = s.do(t, fiber.MethodGet, "/analytics/topic/unknown-topic", token, "")
	assert.Equal(t, fiber.StatusNotFound, status, string(body))

	status, body, _ = s.do(t, fiber.MethodGet, "/health", "", "")
	assert.Equal(t, fiber.StatusOK, status, string(body))
}
