package queue

import (
	"sync"

	"video-ingest-service/pkg/config"
)

var (
	queueOnce    sync.Once
	defaultQueue *MemoryCleanupQueue
)

// DefaultCleanupQueue 获取默认清理队列
func DefaultCleanupQueue() CleanupQueue {
	queueOnce.Do(func() {
		capacity := 1000
		if cfg := config.GetGlobalConfig(); cfg != nil {
			if cfg.Cleanup.QueueCapacity > 0 {
				capacity = cfg.Cleanup.QueueCapacity
			}
		}
		defaultQueue = NewMemoryCleanupQueue(capacity)
	})
	return defaultQueue
}

// CloseDefaultCleanupQueue 关闭默认清理队列
func CloseDefaultCleanupQueue() {
	if defaultQueue != nil {
		_ = defaultQueue.Close()
	}
}
