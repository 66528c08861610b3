package entity

import (
	"time"

	"video-ingest-service/ddd/domain/vo"
)

// TranscodeJobEntity 转码作业与视频的关联记录
type TranscodeJobEntity struct {
	handle         string      // 外部服务的作业ID
	videoID        string      // 所属视频
	submittedAt    time.Time   // 提交时间
	externalStatus vo.JobState // 最近一次上报的外部状态
	progress       int         // 0-100
	superseded     bool        // 被重新提交的作业取代
	resolvedAt     *time.Time  // 观察到终态的时间
}

// NewTranscodeJobEntity 新提交的作业
func NewTranscodeJobEntity(handle, videoID string, submittedAt time.Time) *TranscodeJobEntity {
	return &TranscodeJobEntity{
		handle:         handle,
		videoID:        videoID,
		submittedAt:    submittedAt,
		externalStatus: vo.JobStateSubmitted,
	}
}

// RebuildTranscodeJobEntity 由持久化数据重建
func RebuildTranscodeJobEntity(handle, videoID string, submittedAt time.Time, status vo.JobState, progress int, superseded bool, resolvedAt *time.Time) *TranscodeJobEntity {
	return &TranscodeJobEntity{
		handle:         handle,
		videoID:        videoID,
		submittedAt:    submittedAt,
		externalStatus: status,
		progress:       progress,
		superseded:     superseded,
		resolvedAt:     resolvedAt,
	}
}

func (j *TranscodeJobEntity) Handle() string              { return j.handle }
func (j *TranscodeJobEntity) VideoID() string             { return j.videoID }
func (j *TranscodeJobEntity) SubmittedAt() time.Time      { return j.submittedAt }
func (j *TranscodeJobEntity) ExternalStatus() vo.JobState { return j.externalStatus }
func (j *TranscodeJobEntity) Progress() int               { return j.progress }
func (j *TranscodeJobEntity) IsSuperseded() bool          { return j.superseded }
func (j *TranscodeJobEntity) ResolvedAt() *time.Time      { return j.resolvedAt }

// IsResolved 已观察到终态
func (j *TranscodeJobEntity) IsResolved() bool { return j.resolvedAt != nil }

// RecordProgress 记录非终态进度
func (j *TranscodeJobEntity) RecordProgress(state vo.JobState, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	j.externalStatus = state
	j.progress = percent
}

// Resolve 记录终态
func (j *TranscodeJobEntity) Resolve(state vo.JobState, at time.Time) {
	j.externalStatus = state
	if state.IsSuccess() {
		j.progress = 100
	}
	j.resolvedAt = &at
}

// Supersede 被新作业取代
func (j *TranscodeJobEntity) Supersede() { j.superseded = true }
