package repo

import (
	"context"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/vo"
)

// TranscodeJobRepository 转码作业仓储接口
type TranscodeJobRepository interface {
	// FindByHandle 根据外部作业ID查找，不存在时返回 (nil, nil)
	FindByHandle(ctx context.Context, handle string) (*entity.TranscodeJobEntity, error)
	// RecordProgress 记录非终态进度
	RecordProgress(ctx context.Context, handle string, state vo.JobState, percent int) error
	// ListByVideo 视频的全部作业，按提交时间倒序
	ListByVideo(ctx context.Context, videoID string) ([]*entity.TranscodeJobEntity, error)
}

// FollowRepository 关注关系（只读，由外部服务维护）
type FollowRepository interface {
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
}
