package repo

import (
	"context"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/vo"
)

// VideoRepository 视频仓储接口
//
// 所有状态变更都是条件更新，返回值 bool 表示是否真正修改了记录。
// 查找类方法在记录不存在时返回 (nil, nil)。
type VideoRepository interface {
	// Create 创建视频记录（含话题）
	Create(ctx context.Context, video *entity.VideoEntity) error

	// FindByID 查找未删除的视频
	FindByID(ctx context.Context, videoID string) (*entity.VideoEntity, error)

	// FindByIDUnscoped 查找视频，包括已软删除的
	FindByIDUnscoped(ctx context.Context, videoID string) (*entity.VideoEntity, error)

	// MarkProcessing pending -> processing，同一事务内取代旧作业并写入新作业
	MarkProcessing(ctx context.Context, videoID string, job *entity.TranscodeJobEntity) (bool, error)

	// CompleteTranscode processing -> completed，仅当 jobHandle 为当前有效作业
	CompleteTranscode(ctx context.Context, videoID, jobHandle string, renditions []vo.Rendition, durationSeconds int) (bool, error)

	// FailTranscode processing -> failed，仅当 jobHandle 为当前有效作业；
	// state 为作业记录上保留的外部终态
	FailTranscode(ctx context.Context, videoID, jobHandle string, state vo.JobState, reason string) (bool, error)

	// ResetToPending failed -> pending
	ResetToPending(ctx context.Context, videoID string) (bool, error)

	// UpdateDetails 更新文案、话题、可见性
	UpdateDetails(ctx context.Context, videoID string, changes *VideoChanges) error

	// SoftDelete 软删除
	SoftDelete(ctx context.Context, videoID string) (bool, error)

	// AdjustCounter 原子增减计数，结果不小于 0；视频不存在或已删除时返回 false
	AdjustCounter(ctx context.Context, videoID string, counter vo.Counter, delta int64) (bool, error)

	// AddLike 插入点赞记录，已存在时返回 false 且不修改计数
	AddLike(ctx context.Context, videoID, userID string) (bool, error)

	// RemoveLike 删除点赞记录，不存在时返回 false 且不修改计数
	RemoveLike(ctx context.Context, videoID, userID string) (bool, error)

	// Query 分页查询，limit <= 0 时只返回总数
	Query(ctx context.Context, filter vo.FeedFilter, offset, limit int) ([]*entity.VideoEntity, int64, error)
}

// VideoChanges 可由所有者修改的字段，nil 表示不修改
type VideoChanges struct {
	Caption   *string
	Hashtags  []string
	IsPrivate *bool
}

// IsEmpty 没有任何修改
func (c *VideoChanges) IsEmpty() bool {
	return c == nil || (c.Caption == nil && c.IsPrivate == nil)
}
