package entity

import (
	"fmt"
	"time"

	"video-ingest-service/ddd/domain/vo"
)

// VideoEntity 视频实体
type VideoEntity struct {
	id               string         // 视频ID，创建后不变
	ownerID          string         // 所有者用户ID
	caption          string         // 文案
	inputLocator     string         // 原始上传对象，创建后不变
	thumbnailLocator string         // 封面对象，可为空
	renditions       []vo.Rendition // 转码产物，仅 completed 时非空
	durationSeconds  int            // 时长，仅 completed 时有值
	isPrivate        bool
	isApproved       bool
	viewsCount       int64
	likesCount       int64
	commentsCount    int64
	sharesCount      int64
	hashtags         []string
	status           vo.ProcessingStatus
	activeJobHandle  string // 当前有效的转码作业
	failureReason    string
	deletedAt        *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// VideoAttrs 从存储层重建实体时使用的全部字段
type VideoAttrs struct {
	ID               string
	OwnerID          string
	Caption          string
	InputLocator     string
	ThumbnailLocator string
	Renditions       []vo.Rendition
	DurationSeconds  int
	IsPrivate        bool
	IsApproved       bool
	ViewsCount       int64
	LikesCount       int64
	CommentsCount    int64
	SharesCount      int64
	Hashtags         []string
	Status           vo.ProcessingStatus
	ActiveJobHandle  string
	FailureReason    string
	DeletedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewVideoEntity 新上传的视频，状态为 pending，默认已审核
func NewVideoEntity(id, ownerID, caption, inputLocator, thumbnailLocator string, isPrivate bool, hashtags []string) *VideoEntity {
	now := time.Now()
	if hashtags == nil {
		hashtags = []string{}
	}
	return &VideoEntity{
		id:               id,
		ownerID:          ownerID,
		caption:          caption,
		inputLocator:     inputLocator,
		thumbnailLocator: thumbnailLocator,
		renditions:       []vo.Rendition{},
		isPrivate:        isPrivate,
		isApproved:       true,
		hashtags:         hashtags,
		status:           vo.StatusPending,
		createdAt:        now,
		updatedAt:        now,
	}
}

// RebuildVideoEntity 由持久化数据重建
func RebuildVideoEntity(a VideoAttrs) *VideoEntity {
	renditions := a.Renditions
	if renditions == nil {
		renditions = []vo.Rendition{}
	}
	hashtags := a.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	return &VideoEntity{
		id:               a.ID,
		ownerID:          a.OwnerID,
		caption:          a.Caption,
		inputLocator:     a.InputLocator,
		thumbnailLocator: a.ThumbnailLocator,
		renditions:       renditions,
		durationSeconds:  a.DurationSeconds,
		isPrivate:        a.IsPrivate,
		isApproved:       a.IsApproved,
		viewsCount:       a.ViewsCount,
		likesCount:       a.LikesCount,
		commentsCount:    a.CommentsCount,
		sharesCount:      a.SharesCount,
		hashtags:         hashtags,
		status:           a.Status,
		activeJobHandle:  a.ActiveJobHandle,
		failureReason:    a.FailureReason,
		deletedAt:        a.DeletedAt,
		createdAt:        a.CreatedAt,
		updatedAt:        a.UpdatedAt,
	}
}

// Getters
func (v *VideoEntity) ID() string                  { return v.id }
func (v *VideoEntity) OwnerID() string             { return v.ownerID }
func (v *VideoEntity) Caption() string             { return v.caption }
func (v *VideoEntity) InputLocator() string        { return v.inputLocator }
func (v *VideoEntity) ThumbnailLocator() string    { return v.thumbnailLocator }
func (v *VideoEntity) Renditions() []vo.Rendition  { return append([]vo.Rendition(nil), v.renditions...) }
func (v *VideoEntity) DurationSeconds() int        { return v.durationSeconds }
func (v *VideoEntity) IsPrivate() bool             { return v.isPrivate }
func (v *VideoEntity) IsApproved() bool            { return v.isApproved }
func (v *VideoEntity) ViewsCount() int64           { return v.viewsCount }
func (v *VideoEntity) LikesCount() int64           { return v.likesCount }
func (v *VideoEntity) CommentsCount() int64        { return v.commentsCount }
func (v *VideoEntity) SharesCount() int64          { return v.sharesCount }
func (v *VideoEntity) Hashtags() []string          { return append([]string(nil), v.hashtags...) }
func (v *VideoEntity) Status() vo.ProcessingStatus { return v.status }
func (v *VideoEntity) ActiveJobHandle() string     { return v.activeJobHandle }
func (v *VideoEntity) FailureReason() string       { return v.failureReason }
func (v *VideoEntity) DeletedAt() *time.Time       { return v.deletedAt }
func (v *VideoEntity) CreatedAt() time.Time        { return v.createdAt }
func (v *VideoEntity) UpdatedAt() time.Time        { return v.updatedAt }

// IsOwnedBy 是否为所有者
func (v *VideoEntity) IsOwnedBy(userID string) bool {
	return userID != "" && v.ownerID == userID
}

// IsDeleted 是否已软删除
func (v *VideoEntity) IsDeleted() bool { return v.deletedAt != nil }

// IsPubliclyListed 是否出现在公开列表中
func (v *VideoEntity) IsPubliclyListed() bool {
	return !v.isPrivate && v.isApproved && v.status == vo.StatusCompleted && !v.IsDeleted()
}

// BlobLocators 视频关联的全部对象，用于删除后清理
func (v *VideoEntity) BlobLocators() []string {
	locators := []string{v.inputLocator}
	if v.thumbnailLocator != "" {
		locators = append(locators, v.thumbnailLocator)
	}
	for _, r := range v.renditions {
		locators = append(locators, r.Locator)
	}
	return locators
}

func (v *VideoEntity) transition(target vo.ProcessingStatus) error {
	if !v.status.CanTransitionTo(target) {
		return fmt.Errorf("video %s cannot move from %s to %s", v.id, v.status, target)
	}
	v.status = target
	v.updatedAt = time.Now()
	return nil
}

// MarkProcessing 作业提交成功后进入 processing
func (v *VideoEntity) MarkProcessing(jobHandle string) error {
	if err := v.transition(vo.StatusProcessing); err != nil {
		return err
	}
	v.activeJobHandle = jobHandle
	v.failureReason = ""
	return nil
}

// MarkCompleted 记录转码产物与时长
func (v *VideoEntity) MarkCompleted(renditions []vo.Rendition, durationSeconds int) error {
	if len(renditions) == 0 {
		return fmt.Errorf("video %s cannot complete without renditions", v.id)
	}
	if err := v.transition(vo.StatusCompleted); err != nil {
		return err
	}
	v.renditions = append([]vo.Rendition(nil), renditions...)
	v.durationSeconds = durationSeconds
	return nil
}

// MarkFailed 转码失败，不保留任何产物
func (v *VideoEntity) MarkFailed(reason string) error {
	if err := v.transition(vo.StatusFailed); err != nil {
		return err
	}
	v.renditions = []vo.Rendition{}
	v.durationSeconds = 0
	v.failureReason = reason
	return nil
}

// ResetToPending 重新提交前回到 pending
func (v *VideoEntity) ResetToPending() error {
	if err := v.transition(vo.StatusPending); err != nil {
		return err
	}
	v.activeJobHandle = ""
	v.failureReason = ""
	return nil
}

// UpdateCaption 更新文案并同步话题
func (v *VideoEntity) UpdateCaption(caption string, hashtags []string) {
	v.caption = caption
	if hashtags == nil {
		hashtags = []string{}
	}
	v.hashtags = hashtags
	v.updatedAt = time.Now()
}

// SetPrivate 更新可见性
func (v *VideoEntity) SetPrivate(isPrivate bool) {
	v.isPrivate = isPrivate
	v.updatedAt = time.Now()
}

// MarkDeleted 软删除
func (v *VideoEntity) MarkDeleted(at time.Time) {
	v.deletedAt = &at
}

// Attrs 导出全部字段，供持久化层使用
func (v *VideoEntity) Attrs() VideoAttrs {
	return VideoAttrs{
		ID:               v.id,
		OwnerID:          v.ownerID,
		Caption:          v.caption,
		InputLocator:     v.inputLocator,
		ThumbnailLocator: v.thumbnailLocator,
		Renditions:       v.Renditions(),
		DurationSeconds:  v.durationSeconds,
		IsPrivate:        v.isPrivate,
		IsApproved:       v.isApproved,
		ViewsCount:       v.viewsCount,
		LikesCount:       v.likesCount,
		CommentsCount:    v.commentsCount,
		SharesCount:      v.sharesCount,
		Hashtags:         v.Hashtags(),
		Status:           v.status,
		ActiveJobHandle:  v.activeJobHandle,
		FailureReason:    v.failureReason,
		DeletedAt:        v.deletedAt,
		CreatedAt:        v.createdAt,
		UpdatedAt:        v.updatedAt,
	}
}
