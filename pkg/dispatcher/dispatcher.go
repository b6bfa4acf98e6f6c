package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"shortlink/pkg/core/consts"
	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
)

// Job 后台任务，Ctx 只用于携带链路ID，不参与取消
type Job struct {
	Name string
	Ctx  context.Context
	Run  func(ctx context.Context) error
}

// Config 工作池配置
type Config struct {
	Workers       int
	QueueSize     int
	RetryAttempts int
	RetryBackoff  time.Duration
	JobTimeout    time.Duration
}

// Stats 派发统计
type Stats struct {
	Submitted int64 `json:"submitted"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// Dispatcher 固定数量的 worker 消费有界队列，队列满时丢弃新任务
type Dispatcher struct {
	cfg  Config
	jobs chan Job

	mu      sync.RWMutex
	closed  bool
	started atomic.Bool
	wg      sync.WaitGroup

	base   context.Context
	cancel context.CancelFunc

	submitted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	log *logger.Log
	err *errorc.ErrorBuilder
}

func New(cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Second
	}

	base, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		cfg:    cfg,
		jobs:   make(chan Job, cfg.QueueSize),
		base:   base,
		cancel: cancel,
		log:    logger.GetLogger().WithEntryName("Dispatcher"),
		err:    errorc.NewErrorBuilder("Dispatcher"),
	}
}

// Start 启动 worker，重复调用无效
func (d *Dispatcher) Start() {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.log.WithField("workers", d.cfg.Workers).WithField("queue", d.cfg.QueueSize).Info("后台任务派发器已启动")
}

// Submit 非阻塞提交，队列满或已关闭时返回 false
func (d *Dispatcher) Submit(job Job) bool {
	if job.Ctx == nil {
		job.Ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		d.jobLog(job).Warn("派发器已关闭，丢弃任务")
		return false
	}

	select {
	case d.jobs <- job:
		d.submitted.Add(1)
		return true
	default:
		d.dropped.Add(1)
		d.jobLog(job).Warn("任务队列已满，丢弃任务")
		return false
	}
}

// Shutdown 停止接收新任务并等待队列排空；ctx 超时后取消仍在执行的任务
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	if !d.started.Load() {
		remaining := int64(len(d.jobs))
		d.dropped.Add(remaining)
		d.cancel()
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.log.WithFields(d.Stats()).Info("后台任务已全部处理")
		return nil
	case <-ctx.Done():
		d.cancel()
		d.log.WithFields(d.Stats()).Warn("等待后台任务超时，剩余任务已取消")
		return d.err.New("等待后台任务超时", ctx.Err()).Unavailable()
	}
}

// Stats 当前计数快照
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Submitted: d.submitted.Load(),
		Succeeded: d.succeeded.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.jobs {
		d.execute(job)
	}
}

func (d *Dispatcher) execute(job Job) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			d.jobLog(job).WithField("panic", fmt.Sprint(r)).Error("后台任务 panic")
		}
	}()

	ctx := d.base
	if traceID, ok := job.Ctx.Value(consts.TraceKey).(string); ok {
		ctx = context.WithValue(ctx, consts.TraceKey, traceID)
	}

	var err error
	for attempt := 0; attempt <= d.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			if !d.sleep(d.cfg.RetryBackoff << (attempt - 1)) {
				break
			}
		}

		runCtx, cancel := context.WithTimeout(ctx, d.cfg.JobTimeout)
		err = job.Run(runCtx)
		cancel()
		if err == nil {
			d.succeeded.Add(1)
			return
		}
		// 记录不存在时重试没有意义
		if errorc.IsNotFound(err) {
			break
		}
		d.jobLog(job).WithErr(err).WithField("attempt", attempt+1).Debug("后台任务失败")
	}

	d.failed.Add(1)
	errorc.ParseError(err).WithTraceID(ctx).ToLog(d.jobLog(job).GetLogger(), "后台任务失败，已放弃")
}

// sleep 退避等待，派发器被取消时返回 false
func (d *Dispatcher) sleep(wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-d.base.Done():
		return false
	}
}

func (d *Dispatcher) jobLog(job Job) *logger.Log {
	log := d.log.WithField("job", job.Name)
	if traceID, ok := job.Ctx.Value(consts.TraceKey).(string); ok {
		log = log.WithField("TraceId", traceID)
	}
	return log
}
