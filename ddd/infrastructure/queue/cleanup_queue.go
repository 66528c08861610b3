package queue

import (
	"context"
	"errors"
	"sync"

	"video-ingest-service/pkg/errno"
)

// ErrQueueClosed 队列已关闭
var ErrQueueClosed = errors.New("queue is closed")

// CleanupTask 待删除的对象
type CleanupTask struct {
	Locator string
	Attempt int
}

// CleanupQueue 对象清理任务队列
type CleanupQueue interface {
	// Schedule 登记待删除对象，队列满时返回 ErrCleanupQueueFull
	Schedule(ctx context.Context, locators ...string) error

	// Enqueue 入队任务（非阻塞）
	Enqueue(ctx context.Context, task *CleanupTask) error

	// Dequeue 出队任务（阻塞）
	Dequeue(ctx context.Context) (*CleanupTask, error)

	// Size 获取队列大小
	Size() int

	// Close 关闭队列
	Close() error
}

// MemoryCleanupQueue 基于内存的有界队列，进程退出时未处理的任务丢失
type MemoryCleanupQueue struct {
	queue   chan *CleanupTask
	closed  bool
	mu      sync.RWMutex
	metrics *QueueMetrics
}

// QueueMetrics 队列指标
type QueueMetrics struct {
	EnqueueCount uint64
	DequeueCount uint64
	RejectCount  uint64
	MaxSize      int
	CurrentSize  int
	mu           sync.RWMutex
}

// NewMemoryCleanupQueue 创建内存清理队列
func NewMemoryCleanupQueue(capacity int) *MemoryCleanupQueue {
	if capacity <= 0 {
		capacity = 1000 // 默认容量
	}
	return &MemoryCleanupQueue{
		queue:   make(chan *CleanupTask, capacity),
		metrics: &QueueMetrics{MaxSize: capacity},
	}
}

func (q *MemoryCleanupQueue) Schedule(ctx context.Context, locators ...string) error {
	for _, loc := range locators {
		if loc == "" {
			continue
		}
		if err := q.Enqueue(ctx, &CleanupTask{Locator: loc, Attempt: 1}); err != nil {
			return err
		}
	}
	return nil
}

// Enqueue 入队任务
func (q *MemoryCleanupQueue) Enqueue(ctx context.Context, task *CleanupTask) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	if task == nil || task.Locator == "" {
		return errno.ErrInvalidParam
	}

	select {
	case q.queue <- task:
		q.updateMetrics(func(m *QueueMetrics) { m.EnqueueCount++ })
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		q.updateMetrics(func(m *QueueMetrics) { m.RejectCount++ })
		return errno.ErrCleanupQueueFull
	}
}

// Dequeue 出队任务（阻塞），关闭后排空剩余任务再返回 ErrQueueClosed
func (q *MemoryCleanupQueue) Dequeue(ctx context.Context) (*CleanupTask, error) {
	select {
	case task, ok := <-q.queue:
		if !ok {
			return nil, ErrQueueClosed
		}
		q.updateMetrics(func(m *QueueMetrics) { m.DequeueCount++ })
		return task, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size 获取队列大小
func (q *MemoryCleanupQueue) Size() int {
	return len(q.queue)
}

// Close 关闭队列
func (q *MemoryCleanupQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.queue)
	return nil
}

// GetMetrics 获取队列指标
func (q *MemoryCleanupQueue) GetMetrics() QueueMetrics {
	q.metrics.mu.RLock()
	defer q.metrics.mu.RUnlock()
	return QueueMetrics{
		EnqueueCount: q.metrics.EnqueueCount,
		DequeueCount: q.metrics.DequeueCount,
		RejectCount:  q.metrics.RejectCount,
		MaxSize:      q.metrics.MaxSize,
		CurrentSize:  q.Size(),
	}
}

func (q *MemoryCleanupQueue) updateMetrics(fn func(m *QueueMetrics)) {
	q.metrics.mu.Lock()
	defer q.metrics.mu.Unlock()
	fn(q.metrics)
}
