package service

import (
	"context"
	"time"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/ddd/domain/repo"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/pkg/errno"
	"video-ingest-service/pkg/logger"
)

// VideoService 视频读取与变更
type VideoService interface {
	// Get 非所有者只能看到已审核、已完成的视频；私密视频仅对关注者可见
	Get(ctx context.Context, callerID, videoID string) (*entity.VideoEntity, error)
	// GetForAudit 所有者查看，包括已删除的视频
	GetForAudit(ctx context.Context, callerID, videoID string) (*entity.VideoEntity, error)
	// ListJobs 所有者查看转码作业历史
	ListJobs(ctx context.Context, callerID, videoID string) ([]*entity.TranscodeJobEntity, error)
	Update(ctx context.Context, callerID, videoID string, caption *string, isPrivate *bool) (*entity.VideoEntity, error)
	Delete(ctx context.Context, callerID, videoID string) error
	// Like / Unlike 幂等，返回是否发生了变化
	Like(ctx context.Context, callerID, videoID string) (bool, error)
	Unlike(ctx context.Context, callerID, videoID string) (bool, error)
	RecordView(ctx context.Context, videoID string) error
	RecordShare(ctx context.Context, videoID string) error
	AdjustCommentCount(ctx context.Context, videoID string, delta int64) error
}

type videoServiceImpl struct {
	videoRepo   repo.VideoRepository
	jobRepo     repo.TranscodeJobRepository
	follows     repo.FollowRepository
	invalidator CacheInvalidator
	notifier    gateway.Notifier
	cleanup     gateway.CleanupScheduler
	validator   *UploadValidator
}

// NewVideoService 创建视频服务
func NewVideoService(videoRepo repo.VideoRepository, jobRepo repo.TranscodeJobRepository, follows repo.FollowRepository,
	invalidator CacheInvalidator, notifier gateway.Notifier, cleanup gateway.CleanupScheduler, validator *UploadValidator) VideoService {
	return &videoServiceImpl{
		videoRepo:   videoRepo,
		jobRepo:     jobRepo,
		follows:     follows,
		invalidator: invalidator,
		notifier:    notifier,
		cleanup:     cleanup,
		validator:   validator,
	}
}

func (s *videoServiceImpl) Get(ctx context.Context, callerID, videoID string) (*entity.VideoEntity, error) {
	video, err := s.find(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.IsOwnedBy(callerID) {
		return video, nil
	}
	if !video.IsApproved() || video.Status() != vo.StatusCompleted {
		return nil, errno.NewBizError(errno.ErrVideoNotFound, nil)
	}
	if !video.IsPrivate() {
		return video, nil
	}
	if callerID == "" {
		return nil, errno.NewBizError(errno.ErrVideoPrivate, nil)
	}
	following, err := s.follows.IsFollowing(ctx, callerID, video.OwnerID())
	if err != nil {
		return nil, errno.NewBizError(errno.ErrRecordStore, err)
	}
	if !following {
		return nil, errno.NewBizError(errno.ErrVideoPrivate, nil)
	}
	return video, nil
}

func (s *videoServiceImpl) GetForAudit(ctx context.Context, callerID, videoID string) (*entity.VideoEntity, error) {
	video, err := s.videoRepo.FindByIDUnscoped(ctx, videoID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrRecordStore, err)
	}
	if video == nil {
		return nil, errno.NewBizError(errno.ErrVideoNotFound, nil)
	}
	if !video.IsOwnedBy(callerID) {
		return nil, errno.NewBizError(errno.ErrNotVideoOwner, nil)
	}
	return video, nil
}

func (s *videoServiceImpl) ListJobs(ctx context.Context, callerID, videoID string) ([]*entity.TranscodeJobEntity, error) {
	if _, err := s.findOwned(ctx, callerID, videoID); err != nil {
		return nil, err
	}
	jobs, err := s.jobRepo.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrRecordStore, err)
	}
	return jobs, nil
}

func (s *videoServiceImpl) Update(ctx context.Context, callerID, videoID string, caption *string, isPrivate *bool) (*entity.VideoEntity, error) {
	video, err := s.findOwned(ctx, callerID, videoID)
	if err != nil {
		return nil, err
	}

	changes := &repo.VideoChanges{IsPrivate: isPrivate}
	if caption != nil {
		text, hashtags, err := s.validator.ValidateCaption(*caption)
		if err != nil {
			return nil, err
		}
		changes.Caption = &text
		changes.Hashtags = hashtags
	}
	if changes.IsEmpty() {
		return video, nil
	}

	if err := s.videoRepo.UpdateDetails(ctx, videoID, changes); err != nil {
		return nil, errno.NewBizError(errno.ErrRecordStore, err)
	}
	if changes.Caption != nil {
		video.UpdateCaption(*changes.Caption, changes.Hashtags)
	}
	if changes.IsPrivate != nil {
		video.SetPrivate(*changes.IsPrivate)
	}

	err = s.invalidator.Invalidate(ctx, vo.CacheTagVideos)
	publishEvent(ctx, s.notifier, video, vo.EventVideoUpdated, "")
	return video, err
}

// Delete 软删除并异步清理相关对象
func (s *videoServiceImpl) Delete(ctx context.Context, callerID, videoID string) error {
	video, err := s.findOwned(ctx, callerID, videoID)
	if err != nil {
		return err
	}
	changed, err := s.videoRepo.SoftDelete(ctx, videoID)
	if err != nil {
		return errno.NewBizError(errno.ErrRecordStore, err)
	}
	if !changed {
		return errno.NewBizError(errno.ErrVideoNotFound, nil)
	}
	video.MarkDeleted(time.Now())

	if s.cleanup != nil {
		if err := s.cleanup.Schedule(ctx, video.BlobLocators()...); err != nil {
			logger.Warnf("schedule blob cleanup failed video_id=%s err=%v", videoID, err)
		}
	}

	err = s.invalidator.Invalidate(ctx, vo.CacheTagVideos)
	publishEvent(ctx, s.notifier, video, vo.EventVideoDeleted, "")
	return err
}

func (s *videoServiceImpl) Like(ctx context.Context, callerID, videoID string) (bool, error) {
	if _, err := s.requireCaller(ctx, callerID, videoID); err != nil {
		return false, err
	}
	changed, err := s.videoRepo.AddLike(ctx, videoID, callerID)
	if err != nil {
		return false, errno.NewBizError(errno.ErrRecordStore, err)
	}
	if !changed {
		return false, nil
	}
	return true, s.invalidator.Invalidate(ctx, vo.CacheTagVideos)
}

func (s *videoServiceImpl) Unlike(ctx context.Context, callerID, videoID string) (bool, error) {
	if _, err := s.requireCaller(ctx, callerID, videoID); err != nil {
		return false, err
	}
	changed, err := s.videoRepo.RemoveLike(ctx, videoID, callerID)
	if err != nil {
		return false, errno.NewBizError(errno.ErrRecordStore, err)
	}
	if !changed {
		return false, nil
	}
	return true, s.invalidator.Invalidate(ctx, vo.CacheTagVideos)
}

func (s *videoServiceImpl) RecordView(ctx context.Context, videoID string) error {
	return s.adjust(ctx, videoID, vo.CounterViews, 1)
}

func (s *videoServiceImpl) RecordShare(ctx context.Context, videoID string) error {
	return s.adjust(ctx, videoID, vo.CounterShares, 1)
}

func (s *videoServiceImpl) AdjustCommentCount(ctx context.Context, videoID string, delta int64) error {
	if delta == 0 {
		return nil
	}
	return s.adjust(ctx, videoID, vo.CounterComments, delta)
}

func (s *videoServiceImpl) adjust(ctx context.Context, videoID string, counter vo.Counter, delta int64) error {
	changed, err := s.videoRepo.AdjustCounter(ctx, videoID, counter, delta)
	if err != nil {
		return errno.NewBizError(errno.ErrRecordStore, err)
	}
	if !changed {
		return errno.NewBizError(errno.ErrVideoNotFound, nil)
	}
	return s.invalidator.Invalidate(ctx, vo.CacheTagVideos)
}

func (s *videoServiceImpl) requireCaller(ctx context.Context, callerID, videoID string) (*entity.VideoEntity, error) {
	if callerID == "" {
		return nil, errno.NewBizError(errno.ErrUnauthorized, nil)
	}
	return s.Get(ctx, callerID, videoID)
}

func (s *videoServiceImpl) find(ctx context.Context, videoID string) (*entity.VideoEntity, error) {
	if videoID == "" {
		return nil, errno.NewBizError(errno.ErrVideoUUIDRequired, nil)
	}
	video, err := s.videoRepo.FindByID(ctx, videoID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrRecordStore, err)
	}
	if video == nil || video.IsDeleted() {
		return nil, errno.NewBizError(errno.ErrVideoNotFound, nil)
	}
	return video, nil
}

func (s *videoServiceImpl) findOwned(ctx context.Context, callerID, videoID string) (*entity.VideoEntity, error) {
	if callerID == "" {
		return nil, errno.NewBizError(errno.ErrUnauthorized, nil)
	}
	video, err := s.find(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsOwnedBy(callerID) {
		return nil, errno.NewBizError(errno.ErrNotVideoOwner, nil)
	}
	return video, nil
}
