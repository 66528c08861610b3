package convertor

import (
	"sort"

	"gorm.io/gorm"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/ddd/infrastructure/database/po"
)

// VideoConvertor 视频转换器
type VideoConvertor struct{}

// NewVideoConvertor 创建视频转换器
func NewVideoConvertor() *VideoConvertor {
	return &VideoConvertor{}
}

// ToEntity 将PO转换为Entity
func (c *VideoConvertor) ToEntity(v *po.Video) *entity.VideoEntity {
	if v == nil {
		return nil
	}
	status, err := vo.NewProcessingStatusFromString(v.ProcessingStatus)
	if err != nil {
		status = vo.StatusPending
	}

	tags := append([]po.VideoHashtag(nil), v.Hashtags...)
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Position < tags[j].Position })
	hashtags := make([]string, 0, len(tags))
	for _, t := range tags {
		hashtags = append(hashtags, t.Tag)
	}

	attrs := entity.VideoAttrs{
		ID:               v.VideoUUID,
		OwnerID:          v.OwnerUUID,
		Caption:          v.Caption,
		InputLocator:     v.InputPath,
		ThumbnailLocator: v.ThumbnailPath,
		Renditions:       []vo.Rendition(v.Renditions),
		DurationSeconds:  v.Duration,
		IsPrivate:        v.IsPrivate,
		IsApproved:       v.IsApproved,
		ViewsCount:       v.ViewsCount,
		LikesCount:       v.LikesCount,
		CommentsCount:    v.CommentsCount,
		SharesCount:      v.SharesCount,
		Hashtags:         hashtags,
		Status:           status,
		ActiveJobHandle:  v.ActiveJobHandle,
		FailureReason:    v.FailureReason,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
	if v.DeletedAt.Valid {
		deletedAt := v.DeletedAt.Time
		attrs.DeletedAt = &deletedAt
	}
	return entity.RebuildVideoEntity(attrs)
}

// ToPO 将Entity转换为PO
func (c *VideoConvertor) ToPO(e *entity.VideoEntity) *po.Video {
	a := e.Attrs()
	v := &po.Video{
		BaseModel: po.BaseModel{
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		},
		VideoUUID:        a.ID,
		OwnerUUID:        a.OwnerID,
		Caption:          a.Caption,
		InputPath:        a.InputLocator,
		ThumbnailPath:    a.ThumbnailLocator,
		Renditions:       po.Renditions(a.Renditions),
		Duration:         a.DurationSeconds,
		IsPrivate:        a.IsPrivate,
		IsApproved:       a.IsApproved,
		ViewsCount:       a.ViewsCount,
		LikesCount:       a.LikesCount,
		CommentsCount:    a.CommentsCount,
		SharesCount:      a.SharesCount,
		ProcessingStatus: a.Status.String(),
		ActiveJobHandle:  a.ActiveJobHandle,
		FailureReason:    a.FailureReason,
		Hashtags:         c.ToHashtagPOs(a.ID, a.Hashtags),
	}
	if a.DeletedAt != nil {
		v.DeletedAt = gorm.DeletedAt{Time: *a.DeletedAt, Valid: true}
	}
	return v
}

// ToHashtagPOs 保留提取顺序
func (c *VideoConvertor) ToHashtagPOs(videoID string, hashtags []string) []po.VideoHashtag {
	out := make([]po.VideoHashtag, 0, len(hashtags))
	for i, tag := range hashtags {
		out = append(out, po.VideoHashtag{VideoUUID: videoID, Tag: tag, Position: i})
	}
	return out
}

// TranscodeJobConvertor 转码作业转换器
type TranscodeJobConvertor struct{}

func NewTranscodeJobConvertor() *TranscodeJobConvertor {
	return &TranscodeJobConvertor{}
}

func (c *TranscodeJobConvertor) ToEntity(j *po.TranscodeJob) *entity.TranscodeJobEntity {
	if j == nil {
		return nil
	}
	state, ok := vo.ParseJobState(j.ExternalStatus)
	if !ok {
		state = vo.JobStateSubmitted
	}
	return entity.RebuildTranscodeJobEntity(j.JobHandle, j.VideoUUID, j.SubmittedAt, state, j.Progress, j.Superseded, j.ResolvedAt)
}

func (c *TranscodeJobConvertor) ToPO(j *entity.TranscodeJobEntity) *po.TranscodeJob {
	return &po.TranscodeJob{
		JobHandle:      j.Handle(),
		VideoUUID:      j.VideoID(),
		SubmittedAt:    j.SubmittedAt(),
		ExternalStatus: j.ExternalStatus().String(),
		Progress:       j.Progress(),
		Superseded:     j.IsSuperseded(),
		ResolvedAt:     j.ResolvedAt(),
	}
}
