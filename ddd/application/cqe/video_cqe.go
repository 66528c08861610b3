package cqe

import (
	"mime/multipart"
	"strings"

	"video-ingest-service/pkg/errno"
)

// UploadVideoReq 上传视频请求（multipart/form-data）
type UploadVideoReq struct {
	UserUUID  string                `form:"-"`
	Video     *multipart.FileHeader `form:"video"`
	Thumbnail *multipart.FileHeader `form:"thumbnail"`
	Caption   string                `form:"caption"`
	IsPrivate bool                  `form:"is_private"`
}

func (req *UploadVideoReq) Validate() error {
	if req.UserUUID == "" {
		return errno.ErrUnauthorized
	}
	if req.Video == nil {
		return errno.ErrVideoFileRequired
	}
	return nil
}

// VideoURIReq 路径中的视频ID
type VideoURIReq struct {
	VideoUUID string `uri:"video_uuid" binding:"required"`
	UserUUID  string `uri:"-"`
}

func (req *VideoURIReq) Validate() error {
	req.VideoUUID = strings.TrimSpace(req.VideoUUID)
	if req.VideoUUID == "" {
		return errno.ErrVideoUUIDRequired
	}
	return nil
}

// UpdateVideoReq 修改视频描述或可见性，字段缺省表示不修改
type UpdateVideoReq struct {
	VideoUUID string  `json:"-"`
	UserUUID  string  `json:"-"`
	Caption   *string `json:"caption"`
	IsPrivate *bool   `json:"is_private"`
}

func (req *UpdateVideoReq) Validate() error {
	if req.UserUUID == "" {
		return errno.ErrUnauthorized
	}
	if req.VideoUUID == "" {
		return errno.ErrVideoUUIDRequired
	}
	return nil
}

// FeedReq 列表请求
type FeedReq struct {
	Page     int    `form:"page"`
	Hashtag  string `form:"-"`
	OwnerID  string `form:"-"`
	UserUUID string `form:"-"`
}

func (req *FeedReq) Validate() error {
	if req.Page < 1 {
		req.Page = 1
	}
	return nil
}

// Interaction 类型
const (
	InteractionView    = "view"
	InteractionShare   = "share"
	InteractionComment = "comment"
)

// InteractionEvent 来自 video.interactions 的计数事件
type InteractionEvent struct {
	Type    string `json:"type"`
	VideoID string `json:"video_id"`
	Delta   int64  `json:"delta"`
}

func (e *InteractionEvent) Validate() error {
	if e.VideoID == "" {
		return errno.ErrVideoUUIDRequired
	}
	switch e.Type {
	case InteractionView, InteractionShare:
		return nil
	case InteractionComment:
		if e.Delta == 0 {
			return errno.Errorf(errno.ErrInvalidParam, "comment delta must be non-zero")
		}
		return nil
	default:
		return errno.Errorf(errno.ErrInvalidParam, "unknown interaction type %q", e.Type)
	}
}
