package service

import (
	"context"
	"time"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/pkg/logger"
)

// publishEvent 通知失败只记录日志，不影响已提交的变更
func publishEvent(ctx context.Context, n gateway.Notifier, v *entity.VideoEntity, typ vo.VideoEventType, reason string) {
	if n == nil {
		return
	}
	event := vo.VideoEvent{
		Type:       typ,
		VideoID:    v.ID(),
		OwnerID:    v.OwnerID(),
		Status:     v.Status().String(),
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
	if err := n.Publish(ctx, event); err != nil {
		logger.Warnf("publish video event failed type=%s video_id=%s err=%v", typ, v.ID(), err)
	}
}
