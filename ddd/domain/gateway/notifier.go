package gateway

import (
	"context"

	"video-ingest-service/ddd/domain/vo"
)

// Notifier 向协作方发布视频事件
type Notifier interface {
	Publish(ctx context.Context, event vo.VideoEvent) error
}
