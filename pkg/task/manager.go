package task

import (
	"context"
	"fmt"
	"sync"
)

// BackgroundTask 长期运行的后台任务（清理池、轮询器）
type BackgroundTask interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

type manager struct {
	tasks   []BackgroundTask
	started []BackgroundTask
	mu      sync.Mutex
	cancel  context.CancelFunc
}

var defaultManager = &manager{}

// Register 在组件 Start 阶段登记任务，需早于 StartAll
func Register(t BackgroundTask) {
	if t == nil {
		return
	}
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.tasks = append(defaultManager.tasks, t)
}

// StartAll 启动全部已登记任务，重复调用无效果。
// 任一任务启动失败时，已启动的任务会被停止。
func StartAll(ctx context.Context) error {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	if defaultManager.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	defaultManager.cancel = cancel
	for _, t := range defaultManager.tasks {
		if err := t.Start(runCtx); err != nil {
			defaultManager.stopLocked()
			return fmt.Errorf("start task %s: %w", t.Name(), err)
		}
		defaultManager.started = append(defaultManager.started, t)
	}
	return nil
}

// StopAll 逆序停止已启动任务
func StopAll() {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.stopLocked()
}

// Registered 返回已登记任务名
func Registered() []string {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	names := make([]string, 0, len(defaultManager.tasks))
	for _, t := range defaultManager.tasks {
		names = append(names, t.Name())
	}
	return names
}

func (m *manager) stopLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	for i := len(m.started) - 1; i >= 0; i-- {
		_ = m.started[i].Stop()
	}
	m.started = nil
}
