package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/ddd/domain/repo"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/pkg/errno"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/metrics"
)

// SubmitCommand 一次上传
type SubmitCommand struct {
	OwnerID   string
	Video     *UploadFile
	Thumbnail *UploadFile // 可选
	Caption   string
	IsPrivate bool
}

// IngestService 上传编排
type IngestService interface {
	// Submit 校验、落盘、建记录、提交转码。
	// 提交转码失败时返回 pending 状态的视频与 ErrJobSubmission。
	Submit(ctx context.Context, cmd *SubmitCommand) (*entity.VideoEntity, error)
	// Resubmit 所有者对 failed 或仍为 pending 的视频重新提交转码
	Resubmit(ctx context.Context, callerID, videoID string) (*entity.VideoEntity, error)
}

// IngestDeps 上传编排依赖
type IngestDeps struct {
	VideoRepo     repo.VideoRepository
	Blobs         gateway.BlobStore
	Submitter     gateway.JobSubmitter
	Invalidator   CacheInvalidator
	Notifier      gateway.Notifier
	Cleanup       gateway.CleanupScheduler // 同步补偿删除失败时的兜底
	Validator     *UploadValidator
	Presets       []vo.OutputPreset
	SubmitTimeout time.Duration
	NewID         func() string
}

type ingestServiceImpl struct {
	IngestDeps
}

// NewIngestService 创建上传编排服务
func NewIngestService(deps IngestDeps) IngestService {
	if deps.NewID == nil {
		deps.NewID = func() string { return uuid.New().String() }
	}
	return &ingestServiceImpl{IngestDeps: deps}
}

func (s *ingestServiceImpl) Submit(ctx context.Context, cmd *SubmitCommand) (*entity.VideoEntity, error) {
	if cmd == nil || cmd.OwnerID == "" {
		return nil, errno.NewBizError(errno.ErrUnauthorized, nil)
	}

	caption, hashtags, err := s.Validator.ValidateCaption(cmd.Caption)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	videoBlob, err := s.Validator.ValidateVideo(cmd.Video)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	thumbBlob, err := s.Validator.ValidateThumbnail(cmd.Thumbnail)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	videoID := s.NewID()

	// 1. 原始视频；失败时什么都没有写入
	inputLocator, err := s.Blobs.Put(ctx, fmt.Sprintf("videos/%s/%s", cmd.OwnerID, videoID),
		videoBlob.Body, videoBlob.Size, videoBlob.ContentType)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("storage_error").Inc()
		return nil, errno.NewBizError(errno.ErrBlobStore, err)
	}
	stored := []string{inputLocator}

	// 2. 封面
	thumbnailLocator := ""
	if thumbBlob != nil {
		thumbnailLocator, err = s.Blobs.Put(ctx, fmt.Sprintf("thumbnails/%s/%s", cmd.OwnerID, videoID),
			thumbBlob.Body, thumbBlob.Size, thumbBlob.ContentType)
		if err != nil {
			s.compensate(ctx, stored)
			metrics.UploadsTotal.WithLabelValues("storage_error").Inc()
			return nil, errno.NewBizError(errno.ErrBlobStore, err)
		}
		stored = append(stored, thumbnailLocator)
	}

	// 3. 记录，失败时删除已写入的对象
	video := entity.NewVideoEntity(videoID, cmd.OwnerID, caption, inputLocator, thumbnailLocator, cmd.IsPrivate, hashtags)
	if err := s.VideoRepo.Create(ctx, video); err != nil {
		s.compensate(ctx, stored)
		metrics.UploadsTotal.WithLabelValues("storage_error").Inc()
		return nil, errno.NewBizError(errno.ErrRecordStore, err)
	}
	logger.Infof("video created video_id=%s owner_id=%s hashtags=%v", videoID, cmd.OwnerID, hashtags)

	return video, s.dispatch(ctx, video, vo.EventVideoCreated)
}

func (s *ingestServiceImpl) Resubmit(ctx context.Context, callerID, videoID string) (*entity.VideoEntity, error) {
	video, err := s.VideoRepo.FindByID(ctx, videoID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrRecordStore, err)
	}
	if video == nil {
		return nil, errno.NewBizError(errno.ErrVideoNotFound, nil)
	}
	if !video.IsOwnedBy(callerID) {
		return nil, errno.NewBizError(errno.ErrNotVideoOwner, nil)
	}

	switch video.Status() {
	case vo.StatusFailed:
		changed, err := s.VideoRepo.ResetToPending(ctx, videoID)
		if err != nil {
			return nil, errno.NewBizError(errno.ErrRecordStore, err)
		}
		if !changed {
			return nil, errno.Errorf(errno.ErrNotResubmittable, "video %s changed concurrently", videoID)
		}
		if err := video.ResetToPending(); err != nil {
			return nil, errno.NewBizError(errno.ErrInvalidStatusChange, err)
		}
	case vo.StatusPending:
	default:
		return nil, errno.Errorf(errno.ErrNotResubmittable, "status is %s", video.Status())
	}

	return video, s.dispatch(ctx, video, vo.EventVideoUpdated)
}

// dispatch 提交转码并记录作业，随后失效缓存、发送通知。
// 视频记录此时已存在，任何错误都不会删除它。
func (s *ingestServiceImpl) dispatch(ctx context.Context, video *entity.VideoEntity, event vo.VideoEventType) error {
	handle, submitErr := s.submit(ctx, video)
	if submitErr != nil {
		metrics.UploadsTotal.WithLabelValues("submission_error").Inc()
		logger.Warnf("transcode submit failed video_id=%s err=%v", video.ID(), submitErr)
		if err := s.Invalidator.Invalidate(ctx, vo.CacheTagVideos); err != nil {
			logger.Warnf("invalidate after failed submit video_id=%s err=%v", video.ID(), err)
		}
		publishEvent(ctx, s.Notifier, video, event, "")
		return errno.NewBizError(errno.ErrJobSubmission, submitErr)
	}

	job := entity.NewTranscodeJobEntity(handle, video.ID(), time.Now())
	changed, err := s.VideoRepo.MarkProcessing(ctx, video.ID(), job)
	if err != nil {
		// 作业已在外部创建但没有关联，其状态回调会被丢弃；视频保持 pending 可重新提交
		metrics.UploadsTotal.WithLabelValues("storage_error").Inc()
		logger.Errorf("record transcode job failed video_id=%s job=%s err=%v", video.ID(), handle, err)
		_ = s.Invalidator.Invalidate(ctx, vo.CacheTagVideos)
		return errno.NewBizError(errno.ErrRecordStore, err)
	}
	if changed {
		if err := video.MarkProcessing(handle); err != nil {
			return errno.NewBizError(errno.ErrInvalidStatusChange, err)
		}
	} else {
		logger.Warnf("video left pending state before job was recorded video_id=%s job=%s", video.ID(), handle)
	}
	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	logger.Infof("transcode job submitted video_id=%s job=%s", video.ID(), handle)

	err = s.Invalidator.Invalidate(ctx, vo.CacheTagVideos)
	publishEvent(ctx, s.Notifier, video, event, "")
	return err
}

func (s *ingestServiceImpl) submit(ctx context.Context, video *entity.VideoEntity) (string, error) {
	if s.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.SubmitTimeout)
		defer cancel()
	}
	return s.Submitter.Submit(ctx, &gateway.JobRequest{
		InputLocator:      video.InputLocator(),
		Presets:           s.Presets,
		DestinationPrefix: fmt.Sprintf("processed/videos/%s/", video.ID()),
		Metadata:          map[string]string{"video_id": video.ID()},
	})
}

// compensate 删除已写入的对象；同步删除失败的交给后台清理
func (s *ingestServiceImpl) compensate(ctx context.Context, locators []string) {
	ctx = context.WithoutCancel(ctx)
	var pending []string
	for _, locator := range locators {
		if err := s.Blobs.Delete(ctx, locator); err != nil {
			logger.Warnf("compensating delete failed locator=%s err=%v", locator, err)
			pending = append(pending, locator)
		}
	}
	if len(pending) == 0 || s.Cleanup == nil {
		return
	}
	if err := s.Cleanup.Schedule(ctx, pending...); err != nil {
		logger.Errorf("schedule blob cleanup failed locators=%v err=%v", pending, err)
	}
}
