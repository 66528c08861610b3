package gateway

import (
	"context"

	"video-ingest-service/ddd/domain/vo"
)

// JobRequest 转码作业请求
type JobRequest struct {
	InputLocator      string
	Presets           []vo.OutputPreset
	DestinationPrefix string
	Metadata          map[string]string // 必须包含 video_id
}

// JobSubmitter 外部转码服务。无内部重试。
type JobSubmitter interface {
	Submit(ctx context.Context, req *JobRequest) (string, error)
}
