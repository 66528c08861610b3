package worker

import (
	"context"
	"fmt"

	"video-ingest-service/ddd/infrastructure/queue"
	"video-ingest-service/ddd/infrastructure/storage"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/manager"
	"video-ingest-service/pkg/task"
)

// CleanupWorkerComponentPlugin 负责启动对象清理Worker
type CleanupWorkerComponentPlugin struct{}

func (p *CleanupWorkerComponentPlugin) Name() string {
	return "cleanupWorkerComponent"
}

func (p *CleanupWorkerComponentPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	opts := WorkerOptions{}
	if cfg != nil {
		opts = WorkerOptions{
			Workers:     cfg.Cleanup.Workers,
			MaxAttempts: cfg.Cleanup.MaxAttempts,
			RetryDelay:  cfg.Cleanup.RetryDelay,
		}
	}
	q := queue.DefaultCleanupQueue()
	return &cleanupWorkerComponent{
		name:   "cleanupWorker",
		worker: NewCleanupWorker("blob-cleanup", q, storage.DefaultBlobStore(), opts),
	}
}

type cleanupWorkerComponent struct {
	name   string
	worker CleanupWorker
}

func (c *cleanupWorkerComponent) Start() error {
	if c.worker == nil {
		return fmt.Errorf("cleanup worker not initialized")
	}
	// 注册后台任务，让应用启动时统一管理
	task.Register(&backgroundTaskAdapter{name: c.name, startFunc: c.worker.Start, stopFunc: c.worker.Stop})
	logger.Infof("Cleanup worker component registered background tasks name=%s", c.name)
	return nil
}

func (c *cleanupWorkerComponent) Stop() error {
	// 背景任务由 task.Manager 控制停止，这里只关闭队列
	queue.CloseDefaultCleanupQueue()
	logger.Infof("Cleanup worker component stopped name=%s", c.name)
	return nil
}

func (c *cleanupWorkerComponent) GetName() string {
	return c.name
}

// backgroundTaskAdapter adapts Start/Stop functions to the BackgroundTask interface.
type backgroundTaskAdapter struct {
	name      string
	startFunc func(ctx context.Context) error
	stopFunc  func() error
}

func (b *backgroundTaskAdapter) Name() string                    { return b.name }
func (b *backgroundTaskAdapter) Start(ctx context.Context) error { return b.startFunc(ctx) }
func (b *backgroundTaskAdapter) Stop() error                     { return b.stopFunc() }
