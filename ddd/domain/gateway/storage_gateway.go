package gateway

import (
	"context"
	"io"
)

// BlobStore 对象存储网关
//
// locator 为对象在配置桶内的 key，例如 videos/<owner>/<id>。
type BlobStore interface {
	// Put 写入对象，返回 locator
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	// Delete 删除对象，对象不存在不视为错误
	Delete(ctx context.Context, locator string) error
	// PublicURL 对外访问地址
	PublicURL(locator string) string
}

// CleanupScheduler 异步清理对象
type CleanupScheduler interface {
	Schedule(ctx context.Context, locators ...string) error
}
