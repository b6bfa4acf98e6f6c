package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// TaskExecuteMode 任务执行模式
type TaskExecuteMode int

const (
	// TaskExecuteModeDistributed 集群内同一时刻只有一个节点执行（需要获取锁）
	TaskExecuteModeDistributed TaskExecuteMode = iota
	// TaskExecuteModeLocal 每个节点都执行
	TaskExecuteModeLocal
)

// TaskFunc 任务执行函数
type TaskFunc func(ctx context.Context) error

// Task 任务接口
type Task interface {
	GetID() string
	GetName() string
	GetExecuteMode() TaskExecuteMode
	GetNextTime() time.Time
	GetTimeout() time.Duration
	Execute(ctx context.Context) error
	// UpdateNextTime 根据当前时间计算下次执行时间
	UpdateNextTime(currentTime time.Time) time.Time
}

// BaseTask 基础任务实现
type BaseTask struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ExecuteMode TaskExecuteMode `json:"execute_mode"`
	Timeout     time.Duration   `json:"timeout"`
	Func        TaskFunc        `json:"-"`

	mu       sync.RWMutex
	nextTime time.Time
}

func newBaseTask(name string, next time.Time, mode TaskExecuteMode, timeout time.Duration, fn TaskFunc) *BaseTask {
	return &BaseTask{
		ID:          uuid.New().String(),
		Name:        name,
		ExecuteMode: mode,
		Timeout:     timeout,
		Func:        fn,
		nextTime:    next,
	}
}

func (t *BaseTask) GetID() string {
	return t.ID
}

func (t *BaseTask) GetName() string {
	return t.Name
}

func (t *BaseTask) GetExecuteMode() TaskExecuteMode {
	return t.ExecuteMode
}

func (t *BaseTask) GetNextTime() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextTime
}

func (t *BaseTask) setNextTime(next time.Time) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextTime = next
	return next
}

// GetTimeout 获取任务超时时间
func (t *BaseTask) GetTimeout() time.Duration {
	if t.Timeout <= 0 {
		return 30 * time.Second
	}
	return t.Timeout
}

func (t *BaseTask) Execute(ctx context.Context) error {
	if t.Func == nil {
		return nil
	}
	return t.Func(ctx)
}

// IntervalTask 固定间隔任务
type IntervalTask struct {
	*BaseTask
	Interval time.Duration `json:"interval"`
}

// NewIntervalTask 创建固定间隔任务
func NewIntervalTask(name string, startTime time.Time, interval time.Duration, executeMode TaskExecuteMode, timeout time.Duration, fn TaskFunc) *IntervalTask {
	return &IntervalTask{
		BaseTask: newBaseTask(name, startTime, executeMode, timeout, fn),
		Interval: interval,
	}
}

func (t *IntervalTask) UpdateNextTime(currentTime time.Time) time.Time {
	return t.setNextTime(currentTime.Add(t.Interval))
}

// CronTask 基于Cron表达式的任务，表达式带秒字段
type CronTask struct {
	*BaseTask
	CronExpr string `json:"cron_expr"`
	schedule cron.Schedule
}

// NewCronTask 创建Cron任务
func NewCronTask(name string, cronExpr string, executeMode TaskExecuteMode, timeout time.Duration, fn TaskFunc) (*CronTask, error) {
	parser := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}

	return &CronTask{
		BaseTask: newBaseTask(name, schedule.Next(time.Now()), executeMode, timeout, fn),
		CronExpr: cronExpr,
		schedule: schedule,
	}, nil
}

func (t *CronTask) UpdateNextTime(currentTime time.Time) time.Time {
	return t.setNextTime(t.schedule.Next(currentTime))
}
