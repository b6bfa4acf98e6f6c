package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// TaskHeap 任务小顶堆，按下次执行时间排序
type TaskHeap struct {
	mu    sync.Mutex
	tasks []Task
}

func NewTaskHeap() *TaskHeap {
	return &TaskHeap{tasks: make([]Task, 0)}
}

func (th *TaskHeap) Len() int { return len(th.tasks) }

func (th *TaskHeap) Less(i, j int) bool {
	return th.tasks[i].GetNextTime().Before(th.tasks[j].GetNextTime())
}

func (th *TaskHeap) Swap(i, j int) { th.tasks[i], th.tasks[j] = th.tasks[j], th.tasks[i] }

func (th *TaskHeap) Push(x interface{}) {
	th.tasks = append(th.tasks, x.(Task))
}

func (th *TaskHeap) Pop() interface{} {
	old := th.tasks
	n := len(old)
	task := old[n-1]
	th.tasks = old[0 : n-1]
	return task
}

// SafePush 线程安全地添加任务
func (th *TaskHeap) SafePush(task Task) {
	th.mu.Lock()
	defer th.mu.Unlock()
	heap.Push(th, task)
}

// SafeRemove 线程安全地移除指定任务
func (th *TaskHeap) SafeRemove(taskID string) bool {
	th.mu.Lock()
	defer th.mu.Unlock()

	for i, task := range th.tasks {
		if task.GetID() == taskID {
			heap.Remove(th, i)
			return true
		}
	}
	return false
}

// SafeList 任务列表副本
func (th *TaskHeap) SafeList() []Task {
	th.mu.Lock()
	defer th.mu.Unlock()

	result := make([]Task, len(th.tasks))
	copy(result, th.tasks)
	return result
}

// GetNextExecuteTime 最早的下次执行时间，堆为空返回 nil
func (th *TaskHeap) GetNextExecuteTime() *time.Time {
	th.mu.Lock()
	defer th.mu.Unlock()

	if th.Len() == 0 {
		return nil
	}
	nextTime := th.tasks[0].GetNextTime()
	return &nextTime
}

// PopReadyTasks 弹出所有到执行时间的任务
func (th *TaskHeap) PopReadyTasks(currentTime time.Time) []Task {
	th.mu.Lock()
	defer th.mu.Unlock()

	var readyTasks []Task
	for th.Len() > 0 && !currentTime.Before(th.tasks[0].GetNextTime()) {
		readyTasks = append(readyTasks, heap.Pop(th).(Task))
	}
	return readyTasks
}
