package gateway

import (
	"context"
	"time"
)

// LoadFunc 缓存未命中时的加载函数
type LoadFunc func(ctx context.Context) (interface{}, error)

// TaggedCache 带标签的读穿缓存
type TaggedCache interface {
	// Remember 命中时把缓存值解码到 dst；未命中时调用 load，写入缓存并解码到 dst。
	// 返回是否命中。
	Remember(ctx context.Context, tag, key string, ttl time.Duration, dst interface{}, load LoadFunc) (bool, error)
	// Flush 使标签下所有条目失效
	Flush(ctx context.Context, tag string) error
}
