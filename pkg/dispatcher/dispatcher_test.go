package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shortlink/pkg/core/consts"
	errorc "shortlink/pkg/core/err"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Workers:       2,
		QueueSize:     16,
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
		JobTimeout:    time.Second,
	}
}

func TestSubmitAndDrain(t *testing.T) {
	d := New(testConfig())
	d.Start()

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		ok := d.Submit(Job{Name: "count", Run: func(ctx context.Context) error {
			n.Add(1)
			return nil
		}})
		require.True(t, ok)
	}

	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, int32(10), n.Load())
	assert.Equal(t, int64(10), d.Stats().Succeeded)

	// 关闭后不再接收
	assert.False(t, d.Submit(Job{Name: "late", Run: func(ctx context.Context) error { return nil }}))
	assert.Equal(t, int64(1), d.Stats().Dropped)
}

func TestRetryWithBackoff(t *testing.T) {
	d := New(testConfig())
	d.Start()
	defer d.Shutdown(context.Background())

	var calls atomic.Int32
	done := make(chan struct{})
	d.Submit(Job{Name: "flaky", Run: func(ctx context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("temporary")
		}
		close(done)
		return nil
	}})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed after retries")
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestGiveUpAfterRetries(t *testing.T) {
	d := New(testConfig())
	d.Start()

	var calls atomic.Int32
	d.Submit(Job{Name: "broken", Run: func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("always")
	}})
	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, int64(1), d.Stats().Failed)
}

func TestNotFoundIsNotRetried(t *testing.T) {
	d := New(testConfig())
	d.Start()

	var calls atomic.Int32
	d.Submit(Job{Name: "missing", Run: func(ctx context.Context) error {
		calls.Add(1)
		return errorc.NewErrorBuilder("test").NotFound("短链接不存在")
	}})
	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDropWhenQueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1
	d := New(cfg)
	d.Start()

	release := make(chan struct{})
	started := make(chan struct{})
	d.Submit(Job{Name: "block", Run: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}})
	<-started

	noop := func(ctx context.Context) error { return nil }
	assert.True(t, d.Submit(Job{Name: "queued", Run: noop}))
	assert.False(t, d.Submit(Job{Name: "overflow", Run: noop}))
	assert.Equal(t, int64(1), d.Stats().Dropped)

	close(release)
	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, int64(2), d.Stats().Succeeded)
}

func TestShutdownTimeoutCancelsJobs(t *testing.T) {
	d := New(testConfig())
	d.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	var cancelled atomic.Bool
	d.Submit(Job{Name: "slow", Run: func(ctx context.Context) error {
		defer wg.Done()
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Shutdown(ctx)
	require.Error(t, err)
	assert.True(t, errorc.HasCode(err, errorc.ErrorCodeUnavailable))

	wg.Wait()
	assert.True(t, cancelled.Load())
}

func TestTraceIDPropagates(t *testing.T) {
	d := New(testConfig())
	d.Start()

	got := make(chan string, 1)
	reqCtx := context.WithValue(context.Background(), consts.TraceKey, "trace-1")
	d.Submit(Job{Name: "trace", Ctx: reqCtx, Run: func(ctx context.Context) error {
		got <- ctx.Value(consts.TraceKey).(string)
		return nil
	}})
	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, "trace-1", <-got)
}

func TestPanicIsContained(t *testing.T) {
	d := New(testConfig())
	d.Start()

	d.Submit(Job{Name: "panic", Run: func(ctx context.Context) error { panic("boom") }})
	d.Submit(Job{Name: "after", Run: func(ctx context.Context) error { return nil }})
	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, int64(1), d.Stats().Failed)
	assert.Equal(t, int64(1), d.Stats().Succeeded)
}
