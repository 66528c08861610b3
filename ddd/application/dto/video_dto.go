package dto

import (
	"time"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/ddd/domain/service"
	"video-ingest-service/ddd/domain/vo"
)

// VideoDto 视频详情
type VideoDto struct {
	vo.VideoSummary
	IsApproved      bool       `json:"is_approved"`
	ActiveJobHandle string     `json:"active_job_handle,omitempty"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// NewVideoDto 从实体创建DTO，对象地址转换为对外 URL
func NewVideoDto(v *entity.VideoEntity, blobs gateway.BlobStore) *VideoDto {
	if v == nil {
		return nil
	}
	return &VideoDto{
		VideoSummary:    service.Summarize(v, blobs),
		IsApproved:      v.IsApproved(),
		ActiveJobHandle: v.ActiveJobHandle(),
		FailureReason:   v.FailureReason(),
		UpdatedAt:       v.UpdatedAt(),
		DeletedAt:       v.DeletedAt(),
	}
}

// TranscodeJobDto 转码作业
type TranscodeJobDto struct {
	JobHandle      string     `json:"job_handle"`
	VideoUUID      string     `json:"video_uuid"`
	ExternalStatus string     `json:"external_status"`
	Progress       int        `json:"progress"`
	Superseded     bool       `json:"superseded"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

func NewTranscodeJobDtos(jobs []*entity.TranscodeJobEntity) []*TranscodeJobDto {
	out := make([]*TranscodeJobDto, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, &TranscodeJobDto{
			JobHandle:      j.Handle(),
			VideoUUID:      j.VideoID(),
			ExternalStatus: j.ExternalStatus().String(),
			Progress:       j.Progress(),
			Superseded:     j.IsSuperseded(),
			SubmittedAt:    j.SubmittedAt(),
			ResolvedAt:     j.ResolvedAt(),
		})
	}
	return out
}

// LikeDto 点赞结果，Changed 表示本次调用是否改变了状态
type LikeDto struct {
	VideoUUID string `json:"video_uuid"`
	Liked     bool   `json:"liked"`
	Changed   bool   `json:"changed"`
}
