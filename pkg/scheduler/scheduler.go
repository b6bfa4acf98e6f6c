package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"shortlink/pkg/core/logger"

	"github.com/bsm/redislock"
)

// Locker 分布式锁，*redislock.Client 满足该接口
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

// Scheduler 任务调度器。分布式任务每次执行前抢占以任务名为键的锁，抢不到则本轮跳过
type Scheduler struct {
	locker     Locker
	lockPrefix string
	maxWorkers int

	isRunning atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	taskHeap        *TaskHeap
	workerSemaphore chan struct{}

	timer   *time.Timer
	timerMu sync.Mutex

	log   *logger.Log
	stats *SchedulerStats
}

// SchedulerStats 调度器统计信息
type SchedulerStats struct {
	TotalTasks     atomic.Int64
	CompletedTasks atomic.Int64
	FailedTasks    atomic.Int64
	SkippedTasks   atomic.Int64
}

// SchedulerConfig 调度器配置
type SchedulerConfig struct {
	LockPrefix string
	MaxWorkers int
}

func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		LockPrefix: "shortlink:scheduler:",
		MaxWorkers: 10,
	}
}

// NewScheduler locker 为空时分布式任务按本地任务执行
func NewScheduler(locker Locker, config *SchedulerConfig) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 10
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		locker:          locker,
		lockPrefix:      config.LockPrefix,
		maxWorkers:      config.MaxWorkers,
		ctx:             ctx,
		cancel:          cancel,
		taskHeap:        NewTaskHeap(),
		workerSemaphore: make(chan struct{}, config.MaxWorkers),
		log:             logger.GetLogger().WithEntryName("Scheduler"),
		stats:           &SchedulerStats{},
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	if !s.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("调度器已经在运行")
	}
	s.log.Info("启动调度器")
	s.resetTimer()
	return nil
}

// Stop 停止调度器，等待正在执行的任务结束或 ctx 超时
func (s *Scheduler) Stop(ctx context.Context) error {
	if !s.isRunning.CompareAndSwap(true, false) {
		return nil
	}

	s.log.Info("停止调度器")
	s.stopTimer()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("调度器已停止")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddTask 添加任务
func (s *Scheduler) AddTask(task Task) error {
	if !s.isRunning.Load() {
		return fmt.Errorf("调度器未运行")
	}

	s.taskHeap.SafePush(task)
	s.stats.TotalTasks.Add(1)
	s.log.WithField("task", task.GetName()).WithField("next", task.GetNextTime()).Info("添加任务")
	s.resetTimer()
	return nil
}

// RemoveTask 移除任务
func (s *Scheduler) RemoveTask(taskID string) bool {
	removed := s.taskHeap.SafeRemove(taskID)
	if removed {
		s.resetTimer()
	}
	return removed
}

func (s *Scheduler) ListTasks() []Task {
	return s.taskHeap.SafeList()
}

func (s *Scheduler) GetStats() *SchedulerStats {
	return s.stats
}

func (s *Scheduler) resetTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	if !s.isRunning.Load() {
		return
	}

	nextTime := s.taskHeap.GetNextExecuteTime()
	if nextTime == nil {
		return
	}
	wait := time.Until(*nextTime)
	if wait < 0 {
		wait = 0
	}
	s.timer = time.AfterFunc(wait, s.onTimerFired)
}

func (s *Scheduler) stopTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) onTimerFired() {
	if !s.isRunning.Load() {
		return
	}

	for _, task := range s.taskHeap.PopReadyTasks(time.Now()) {
		s.executeTask(task)
	}
	s.resetTimer()
}

func (s *Scheduler) executeTask(task Task) {
	select {
	case s.workerSemaphore <- struct{}{}:
		s.wg.Add(1)
		go func(t Task) {
			defer s.wg.Done()
			defer func() { <-s.workerSemaphore }()
			s.runTask(t)
			s.reschedule(t)
		}(task)
	default:
		s.log.WithField("task", task.GetName()).Warn("工作者池已满，任务延后1秒")
		task.UpdateNextTime(time.Now().Add(time.Second))
		s.taskHeap.SafePush(task)
	}
}

func (s *Scheduler) reschedule(task Task) {
	if !s.isRunning.Load() {
		return
	}
	task.UpdateNextTime(time.Now())
	s.taskHeap.SafePush(task)
	s.resetTimer()
}

func (s *Scheduler) runTask(task Task) {
	log := s.log.WithField("task", task.GetName())

	ctx, cancel := context.WithTimeout(s.ctx, task.GetTimeout())
	defer cancel()

	if task.GetExecuteMode() == TaskExecuteModeDistributed && s.locker != nil {
		lock, err := s.locker.Obtain(ctx, s.lockPrefix+task.GetName(), task.GetTimeout(), nil)
		if err != nil {
			if errors.Is(err, redislock.ErrNotObtained) {
				log.Debug("其他节点正在执行，本轮跳过")
			} else {
				log.WithErr(err).Warn("获取任务锁失败，本轮跳过")
			}
			s.stats.SkippedTasks.Add(1)
			return
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				log.WithErr(err).Warn("释放任务锁失败")
			}
		}()
	}

	start := time.Now()
	err := task.Execute(ctx)
	log = log.WithField("cost", time.Since(start).Round(time.Millisecond))
	if err != nil {
		log.WithErr(err).Error("任务执行失败")
		s.stats.FailedTasks.Add(1)
		return
	}
	log.Debug("任务执行成功")
	s.stats.CompletedTasks.Add(1)
}
