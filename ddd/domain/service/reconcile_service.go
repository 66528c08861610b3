package service

import (
	"context"
	"strings"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/ddd/domain/repo"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/errno"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/metrics"
)

// 转码完成但不满足发布条件时写入的失败原因
const (
	ReasonNoOutputs           = "no_outputs"
	ReasonDurationExceeded    = "duration_exceeded"
	ReasonAspectRatioMismatch = "aspect_ratio_mismatch"
)

// ReconcileService 处理外部转码作业的状态回调
type ReconcileService interface {
	// OnJobUpdate 无法关联或已过期的回调被丢弃并返回 nil；
	// 只有记录存储失败才返回错误，调用方应重新投递。
	OnJobUpdate(ctx context.Context, update *vo.JobUpdate) error
}

type reconcileServiceImpl struct {
	videoRepo   repo.VideoRepository
	jobRepo     repo.TranscodeJobRepository
	invalidator CacheInvalidator
	notifier    gateway.Notifier
	cleanup     gateway.CleanupScheduler
	policy      config.IngestConfig
}

// NewReconcileService 创建状态回调处理服务；cleanup 用于回收被拒绝作业的产物
func NewReconcileService(videoRepo repo.VideoRepository, jobRepo repo.TranscodeJobRepository, invalidator CacheInvalidator,
	notifier gateway.Notifier, cleanup gateway.CleanupScheduler, policy config.IngestConfig) ReconcileService {
	return &reconcileServiceImpl{
		videoRepo:   videoRepo,
		jobRepo:     jobRepo,
		invalidator: invalidator,
		notifier:    notifier,
		cleanup:     cleanup,
		policy:      policy,
	}
}

func (s *reconcileServiceImpl) OnJobUpdate(ctx context.Context, update *vo.JobUpdate) error {
	if update == nil || update.Handle == "" {
		s.drop(update, "missing_handle")
		return nil
	}

	job, err := s.jobRepo.FindByHandle(ctx, update.Handle)
	if err != nil {
		return errno.NewBizError(errno.ErrRecordStore, err)
	}
	if job == nil {
		s.drop(update, "unknown_job")
		return nil
	}
	if update.VideoID != "" && update.VideoID != job.VideoID() {
		logger.Warnf("job metadata video_id mismatch job=%s metadata=%s recorded=%s",
			update.Handle, update.VideoID, job.VideoID())
	}

	video, err := s.videoRepo.FindByIDUnscoped(ctx, job.VideoID())
	if err != nil {
		return errno.NewBizError(errno.ErrRecordStore, err)
	}
	switch {
	case video == nil:
		s.drop(update, "unknown_video")
		return nil
	case video.IsDeleted():
		s.drop(update, "video_deleted")
		return nil
	case job.IsSuperseded() || video.ActiveJobHandle() != job.Handle():
		s.drop(update, "superseded_job")
		return nil
	}

	if !update.State.IsTerminal() {
		return s.recordProgress(ctx, video, update)
	}

	// 重复投递的终态：视频已不在 processing
	if video.Status() != vo.StatusProcessing {
		s.drop(update, "already_"+video.Status().String())
		return nil
	}

	if update.State.IsSuccess() {
		if reason := s.rejectReason(update); reason != "" {
			return s.fail(ctx, video, update, reason)
		}
		return s.complete(ctx, video, update)
	}
	return s.fail(ctx, video, update, failureReason(update))
}

func (s *reconcileServiceImpl) recordProgress(ctx context.Context, video *entity.VideoEntity, update *vo.JobUpdate) error {
	if video.Status().IsTerminal() {
		s.drop(update, "stale_progress")
		return nil
	}
	if err := s.jobRepo.RecordProgress(ctx, update.Handle, update.State, update.Percent); err != nil {
		logger.Warnf("record job progress failed job=%s err=%v", update.Handle, err)
	}
	metrics.JobUpdatesTotal.WithLabelValues("progress").Inc()
	return nil
}

// rejectReason 事后校验：产物为空、时长超限、输出比例不符
func (s *reconcileServiceImpl) rejectReason(update *vo.JobUpdate) string {
	if len(update.Outputs) == 0 {
		return ReasonNoOutputs
	}
	if s.policy.MaxDurationSeconds > 0 && update.DurationSeconds > s.policy.MaxDurationSeconds {
		return ReasonDurationExceeded
	}
	if s.policy.EnforceOutputRatio && update.HasDimensions() &&
		!vo.MatchesRatio(update.Width, update.Height, vo.PortraitRatio) {
		return ReasonAspectRatioMismatch
	}
	return ""
}

func (s *reconcileServiceImpl) complete(ctx context.Context, video *entity.VideoEntity, update *vo.JobUpdate) error {
	changed, err := s.videoRepo.CompleteTranscode(ctx, video.ID(), update.Handle, update.Outputs, update.DurationSeconds)
	if err != nil {
		return errno.NewBizError(errno.ErrRecordStore, err)
	}
	if !changed {
		s.drop(update, "lost_race")
		return nil
	}
	if err := video.MarkCompleted(update.Outputs, update.DurationSeconds); err != nil {
		logger.Warnf("in-memory transition failed video_id=%s err=%v", video.ID(), err)
	}
	metrics.JobUpdatesTotal.WithLabelValues("completed").Inc()
	logger.Infof("video transcode completed video_id=%s job=%s renditions=%d duration=%d",
		video.ID(), update.Handle, len(update.Outputs), update.DurationSeconds)

	s.afterTerminal(ctx, video, vo.EventVideoUpdated, "")
	return nil
}

// fail 作业记录保留外部上报的终态（事后校验拒绝时为 COMPLETE）
func (s *reconcileServiceImpl) fail(ctx context.Context, video *entity.VideoEntity, update *vo.JobUpdate, reason string) error {
	changed, err := s.videoRepo.FailTranscode(ctx, video.ID(), update.Handle, update.State, reason)
	if err != nil {
		return errno.NewBizError(errno.ErrRecordStore, err)
	}
	if !changed {
		s.drop(update, "lost_race")
		return nil
	}
	if err := video.MarkFailed(reason); err != nil {
		logger.Warnf("in-memory transition failed video_id=%s err=%v", video.ID(), err)
	}
	metrics.JobUpdatesTotal.WithLabelValues("failed").Inc()
	logger.Warnf("video transcode failed video_id=%s job=%s state=%s reason=%s",
		video.ID(), update.Handle, update.State, reason)

	s.discardOutputs(ctx, video, update.Outputs)
	s.afterTerminal(ctx, video, vo.EventVideoTranscodeFailed, reason)
	return nil
}

// discardOutputs 失败视频不引用任何产物，已写出的文件交给清理队列
func (s *reconcileServiceImpl) discardOutputs(ctx context.Context, video *entity.VideoEntity, outputs []vo.Rendition) {
	if s.cleanup == nil || len(outputs) == 0 {
		return
	}
	locators := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if o.Locator != "" {
			locators = append(locators, o.Locator)
		}
	}
	if len(locators) == 0 {
		return
	}
	if err := s.cleanup.Schedule(ctx, locators...); err != nil {
		logger.Warnf("schedule output cleanup failed video_id=%s count=%d err=%v", video.ID(), len(locators), err)
	}
}

// afterTerminal 失效缓存失败只记录日志，回调方重投也不会再次触发
func (s *reconcileServiceImpl) afterTerminal(ctx context.Context, video *entity.VideoEntity, event vo.VideoEventType, reason string) {
	if err := s.invalidator.Invalidate(ctx, vo.CacheTagVideos); err != nil {
		logger.Errorf("invalidate after job update failed video_id=%s err=%v", video.ID(), err)
	}
	publishEvent(ctx, s.notifier, video, event, reason)
}

func (s *reconcileServiceImpl) drop(update *vo.JobUpdate, reason string) {
	metrics.JobUpdatesTotal.WithLabelValues("dropped").Inc()
	if update == nil {
		logger.Warnf("job update dropped reason=%s", reason)
		return
	}
	logger.Warn("job update dropped", map[string]interface{}{
		"job":      update.Handle,
		"state":    update.State.String(),
		"video_id": update.VideoID,
		"reason":   reason,
	})
}

func failureReason(update *vo.JobUpdate) string {
	if msg := strings.TrimSpace(update.ErrorMessage); msg != "" {
		return msg
	}
	return strings.ToLower(update.State.String())
}
