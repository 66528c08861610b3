package vo

import "time"

// VideoEventType 对外通知类型
type VideoEventType string

const (
	EventVideoCreated         VideoEventType = "video.created"
	EventVideoUpdated         VideoEventType = "video.updated"
	EventVideoTranscodeFailed VideoEventType = "video.transcode_failed"
	EventVideoDeleted         VideoEventType = "video.deleted"
)

// VideoEvent 视频生命周期事件
type VideoEvent struct {
	Type       VideoEventType `json:"type"`
	VideoID    string         `json:"video_id"`
	OwnerID    string         `json:"owner_id"`
	Status     string         `json:"processing_status"`
	Reason     string         `json:"reason,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
