package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/ddd/infrastructure/queue"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/metrics"
)

const deleteTimeout = 30 * time.Second

// CleanupWorker 对象清理工作器接口
type CleanupWorker interface {
	// Start 启动工作器
	Start(ctx context.Context) error

	// Stop 停止工作器
	Stop() error

	// IsRunning 检查工作器是否运行中
	IsRunning() bool

	// GetStats 获取工作器统计信息
	GetStats() WorkerStats
}

// WorkerStats 工作器统计信息
type WorkerStats struct {
	Processed uint64
	Deleted   uint64
	Retried   uint64
	Abandoned uint64
	StartTime time.Time
}

// WorkerOptions 重试策略
type WorkerOptions struct {
	Workers     int
	MaxAttempts int
	RetryDelay  time.Duration
}

// cleanupWorkerImpl 多协程消费清理队列，失败按延迟重新入队
type cleanupWorkerImpl struct {
	id      string
	queue   queue.CleanupQueue
	blobs   gateway.BlobStore
	opts    WorkerOptions
	running bool
	cancel  context.CancelFunc
	stats   WorkerStats
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

// NewCleanupWorker 创建清理工作器
func NewCleanupWorker(id string, q queue.CleanupQueue, blobs gateway.BlobStore, opts WorkerOptions) CleanupWorker {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	return &cleanupWorkerImpl{id: id, queue: q, blobs: blobs, opts: opts}
}

// Start 启动工作器
func (w *cleanupWorkerImpl) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("worker %s is already running", w.id)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.stats.StartTime = time.Now()

	logger.Infof("Starting cleanup worker %s with %d goroutines", w.id, w.opts.Workers)
	for i := 0; i < w.opts.Workers; i++ {
		w.wg.Add(1)
		go w.workerLoop(workerCtx, i)
	}
	return nil
}

// Stop 停止工作器
func (w *cleanupWorkerImpl) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()

	w.wg.Wait()

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	logger.Infof("Cleanup worker %s stopped", w.id)
	return nil
}

// IsRunning 检查工作器是否运行中
func (w *cleanupWorkerImpl) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats 获取工作器统计信息
func (w *cleanupWorkerImpl) GetStats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *cleanupWorkerImpl) workerLoop(ctx context.Context, n int) {
	defer w.wg.Done()

	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, queue.ErrQueueClosed) {
				return
			}
			logger.Warnf("Cleanup worker %s-%d dequeue failed: %v", w.id, n, err)
			continue
		}
		if task == nil {
			continue
		}
		w.process(ctx, task)
	}
}

func (w *cleanupWorkerImpl) process(ctx context.Context, task *queue.CleanupTask) {
	deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	err := w.blobs.Delete(deleteCtx, task.Locator)
	cancel()

	w.updateStats(func(s *WorkerStats) { s.Processed++ })
	if err == nil {
		w.updateStats(func(s *WorkerStats) { s.Deleted++ })
		metrics.BlobCleanups.WithLabelValues("deleted").Inc()
		return
	}

	if task.Attempt >= w.opts.MaxAttempts {
		w.updateStats(func(s *WorkerStats) { s.Abandoned++ })
		metrics.BlobCleanups.WithLabelValues("abandoned").Inc()
		logger.Error("Blob cleanup abandoned", map[string]interface{}{
			"locator":  task.Locator,
			"attempts": task.Attempt,
			"error":    err.Error(),
		})
		return
	}

	w.updateStats(func(s *WorkerStats) { s.Retried++ })
	metrics.BlobCleanups.WithLabelValues("retry").Inc()
	next := &queue.CleanupTask{Locator: task.Locator, Attempt: task.Attempt + 1}
	delay := w.opts.RetryDelay * time.Duration(task.Attempt)
	logger.Warnf("Blob cleanup failed, retrying locator=%s attempt=%d delay=%s error=%v", task.Locator, task.Attempt, delay, err)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if enqErr := w.queue.Enqueue(ctx, next); enqErr != nil {
			metrics.BlobCleanups.WithLabelValues("abandoned").Inc()
			logger.Errorf("Blob cleanup requeue failed locator=%s error=%v", next.Locator, enqErr)
		}
	}()
}

func (w *cleanupWorkerImpl) updateStats(fn func(s *WorkerStats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.stats)
}
