package dao

import (
	"context"
	"sync"
	"testing"
	"time"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/system/shorturl/internal/model"
	"shortlink/system/shorturl/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLinkDao(t *testing.T) *LinkDao {
	return NewLinkDao(testutil.NewSqliteDB(t), logger.GetLogger())
}

func newLink(code string, owner int64, url string) *model.ShortLink {
	return &model.ShortLink{
		OriginalURL: url,
		ShortCode:   code,
		Topic:       model.DefaultTopic,
		OwnerID:     owner,
		IsActive:    true,
		CreatedFrom: model.CreatedFromAPI,
	}
}

func strPtr(s string) *string { return &s }

func TestCreateAndFind(t *testing.T) {
	d := newLinkDao(t)
	ctx := context.Background()

	link, created, err := d.CreateIfAbsent(ctx, newLink("abc2345", 1, "https://example.com/a"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, link.ID)

	got, err := d.FindByCode(ctx, "abc2345")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", got.OriginalURL)
	assert.Equal(t, model.HashURL("https://example.com/a"), got.URLHash)

	_, err = d.FindByCode(ctx, "missing")
	assert.True(t, errorc.IsNotFound(err))

	exists, err := d.ExistsByCode(ctx, "abc2345")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateIfAbsentDedup(t *testing.T) {
	d := newLinkDao(t)
	ctx := context.Background()

	first, created, err := d.CreateIfAbsent(ctx, newLink("first22", 1, "https://example.com/dup"))
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := d.CreateIfAbsent(ctx, newLink("second2", 1, "https://example.com/dup"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "first22", again.ShortCode)

	// 其他用户同一URL不去重
	_, created, err = d.CreateIfAbsent(ctx, newLink("third22", 2, "https://example.com/dup"))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCreateIfAbsentAliasTaken(t *testing.T) {
	d := newLinkDao(t)
	ctx := context.Background()

	l := newLink("promo1", 1, "https://example.com/1")
	l.CustomAlias = strPtr("promo1")
	_, _, err := d.CreateIfAbsent(ctx, l)
	require.NoError(t, err)

	// 同一用户同一URL也以别名冲突为准
	for _, owner := range []int64{1, 2} {
		other := newLink("promo1", owner, "https://example.com/1")
		other.CustomAlias = strPtr("promo1")
		_, _, err = d.CreateIfAbsent(ctx, other)
		assert.True(t, errorc.HasCode(err, errorc.ErrorCodeConflict), "owner %d", owner)
	}
}

func TestConcurrentAliasCreate(t *testing.T) {
	d := newLinkDao(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l := newLink("race", int64(i+1), "https://example.com/race")
			l.CustomAlias = strPtr("race")
			_, _, results[i] = d.CreateIfAbsent(ctx, l)
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errorc.HasCode(err, errorc.ErrorCodeConflict):
			conflict++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflict)
}

func TestIncrementClicksConcurrent(t *testing.T) {
	d := newLinkDao(t)
	ctx := context.Background()

	link, _, err := d.CreateIfAbsent(ctx, newLink("clicks2", 1, "https://example.com/c"))
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.IncrementClicks(ctx, link.ID, time.Now()))
		}()
	}
	wg.Wait()

	got, err := d.FindByCode(ctx, "clicks2")
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.Clicks)
	assert.NotNil(t, got.LastAccessed)

	err = d.IncrementClicks(ctx, 999999, time.Now())
	assert.True(t, errorc.IsNotFound(err))
}

func TestFindActiveByCode(t *testing.T) {
	d := newLinkDao(t)
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := newLink("expired", 1, "https://example.com/e")
	expired.ExpiresAt = &past
	live := newLink("livenow", 1, "https://example.com/l")
	live.ExpiresAt = &future
	inactive := newLink("inactiv", 1, "https://example.com/i")

	for _, l := range []*model.ShortLink{expired, live, inactive} {
		_, _, err := d.CreateIfAbsent(ctx, l)
		require.NoError(t, err)
	}
	require.NoError(t, d.UpdateStatus(ctx, inactive.ID, map[string]interface{}{"is_active": false}))

	_, err := d.FindActiveByCode(ctx, "expired", now)
	assert.True(t, errorc.IsNotFound(err))
	_, err = d.FindActiveByCode(ctx, "inactiv", now)
	assert.True(t, errorc.IsNotFound(err))
	got, err := d.FindActiveByCode(ctx, "livenow", now)
	require.NoError(t, err)
	assert.True(t, got.IsResolvable(now))

	// 不判断可访问性的查询仍能查到
	got, err = d.FindByCode(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, got.IsResolvable(now))
}

func TestReaperQueries(t *testing.T) {
	d := newLinkDao(t)
	ctx := context.Background()
	now := time.Now()
	past := now.Add(-time.Minute)

	var ids []int64
	for _, code := range []string{"exp0001", "exp0002", "exp0003"} {
		l := newLink(code, 1, "https://example.com/"+code)
		l.ExpiresAt = &past
		_, _, err := d.CreateIfAbsent(ctx, l)
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}
	_, _, err := d.CreateIfAbsent(ctx, newLink("forever", 1, "https://example.com/forever"))
	require.NoError(t, err)

	batch, err := d.FindExpiredActive(ctx, now, 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	n, err := d.DeactivateByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	batch, err = d.FindExpiredActive(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestListByOwner(t *testing.T) {
	d := newLinkDao(t)
	ctx := context.Background()

	a := newLink("list001", 7, "https://example.com/1")
	b := newLink("list002", 7, "https://example.com/2")
	b.Topic = "marketing"
	c := newLink("list003", 8, "https://example.com/3")
	for _, l := range []*model.ShortLink{a, b, c} {
		_, _, err := d.CreateIfAbsent(ctx, l)
		require.NoError(t, err)
	}

	all, err := d.ListByOwner(ctx, 7, "", 100)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	topic, err := d.ListByOwner(ctx, 7, "marketing", 100)
	require.NoError(t, err)
	require.Len(t, topic, 1)
	assert.Equal(t, "list002", topic[0].ShortCode)

	ids, err := d.ListIDsByOwner(ctx, 7, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a.ID, b.ID}, ids)
}
