package app

import (
	"context"
	"mime/multipart"
	"sync"

	"video-ingest-service/ddd/application/cqe"
	"video-ingest-service/ddd/application/dto"
	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/ddd/domain/service"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/ddd/infrastructure/cache"
	"video-ingest-service/ddd/infrastructure/database/persistence"
	"video-ingest-service/ddd/infrastructure/notify"
	"video-ingest-service/ddd/infrastructure/queue"
	"video-ingest-service/ddd/infrastructure/storage"
	"video-ingest-service/ddd/infrastructure/transcoder"
	"video-ingest-service/pkg/assert"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/errno"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/metrics"
)

var (
	singleVideoApp VideoApp
	onceVideoApp   sync.Once
)

type VideoApp interface {
	// Upload 上传视频并提交转码；提交失败时同时返回 pending 视频与错误
	Upload(ctx context.Context, req *cqe.UploadVideoReq) (*dto.VideoDto, error)
	// Resubmit 重新提交转码
	Resubmit(ctx context.Context, req *cqe.VideoURIReq) (*dto.VideoDto, error)
	// GetVideo 按可见性规则读取视频
	GetVideo(ctx context.Context, req *cqe.VideoURIReq) (*dto.VideoDto, error)
	// GetVideoForAudit 所有者读取，包含已删除视频
	GetVideoForAudit(ctx context.Context, req *cqe.VideoURIReq) (*dto.VideoDto, error)
	// ListJobs 视频的转码作业历史
	ListJobs(ctx context.Context, req *cqe.VideoURIReq) ([]*dto.TranscodeJobDto, error)
	UpdateVideo(ctx context.Context, req *cqe.UpdateVideoReq) (*dto.VideoDto, error)
	DeleteVideo(ctx context.Context, req *cqe.VideoURIReq) error
	Like(ctx context.Context, req *cqe.VideoURIReq) (*dto.LikeDto, error)
	Unlike(ctx context.Context, req *cqe.VideoURIReq) (*dto.LikeDto, error)
	RecordView(ctx context.Context, req *cqe.VideoURIReq) error
	RecordShare(ctx context.Context, req *cqe.VideoURIReq) error
	// ApplyInteraction 处理协作方上报的计数事件
	ApplyInteraction(ctx context.Context, event *cqe.InteractionEvent) error
	// Feed 读取列表，kind 决定列表类型
	Feed(ctx context.Context, kind vo.FeedKind, req *cqe.FeedReq) (*vo.VideoPage, error)
}

type videoAppImpl struct {
	ingest service.IngestService
	videos service.VideoService
	feed   service.FeedService
	blobs  gateway.BlobStore
}

func DefaultVideoApp() VideoApp {
	assert.NotCircular()
	onceVideoApp.Do(func() {
		cfg := config.GetGlobalConfig()
		if cfg == nil {
			panic("global config not initialized before VideoApp")
		}
		videoRepo := persistence.NewVideoRepository()
		blobs := storage.DefaultBlobStore()
		notifier := notify.DefaultNotifier()
		cleanup := queue.DefaultCleanupQueue()
		validator := service.NewUploadValidator(cfg.Ingest)
		feed := service.NewFeedService(videoRepo, cache.DefaultTaggedCache(), blobs, cfg.Feed)

		ingest := service.NewIngestService(service.IngestDeps{
			VideoRepo:     videoRepo,
			Blobs:         blobs,
			Submitter:     transcoder.DefaultJobSubmitter(),
			Invalidator:   feed,
			Notifier:      notifier,
			Cleanup:       cleanup,
			Validator:     validator,
			Presets:       transcoder.PresetsFromConfig(cfg.AWS.MediaConvert.Presets),
			SubmitTimeout: cfg.AWS.MediaConvert.SubmitTimeout,
		})
		videos := service.NewVideoService(videoRepo, persistence.NewTranscodeJobRepository(), persistence.NewFollowRepository(),
			feed, notifier, cleanup, validator)
		singleVideoApp = NewVideoAppWith(ingest, videos, feed, blobs)
	})
	assert.NotNil(singleVideoApp)
	return singleVideoApp
}

func NewVideoAppWith(ingest service.IngestService, videos service.VideoService, feed service.FeedService, blobs gateway.BlobStore) VideoApp {
	return &videoAppImpl{ingest: ingest, videos: videos, feed: feed, blobs: blobs}
}

func (a *videoAppImpl) Upload(ctx context.Context, req *cqe.UploadVideoReq) (*dto.VideoDto, error) {
	if err := req.Validate(); err != nil {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	videoFile, closeVideo, err := openUpload(req.Video)
	if err != nil {
		return nil, err
	}
	defer closeVideo()
	thumbFile, closeThumb, err := openUpload(req.Thumbnail)
	if err != nil {
		return nil, err
	}
	defer closeThumb()

	video, err := a.ingest.Submit(ctx, &service.SubmitCommand{
		OwnerID:   req.UserUUID,
		Video:     videoFile,
		Thumbnail: thumbFile,
		Caption:   req.Caption,
		IsPrivate: req.IsPrivate,
	})
	if err != nil && video == nil {
		return nil, err
	}
	return dto.NewVideoDto(video, a.blobs), err
}

func (a *videoAppImpl) Resubmit(ctx context.Context, req *cqe.VideoURIReq) (*dto.VideoDto, error) {
	if err := validateCaller(req); err != nil {
		return nil, err
	}
	video, err := a.ingest.Resubmit(ctx, req.UserUUID, req.VideoUUID)
	if err != nil && video == nil {
		return nil, err
	}
	return dto.NewVideoDto(video, a.blobs), err
}

func (a *videoAppImpl) GetVideo(ctx context.Context, req *cqe.VideoURIReq) (*dto.VideoDto, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	video, err := a.videos.Get(ctx, req.UserUUID, req.VideoUUID)
	if err != nil {
		return nil, err
	}
	return dto.NewVideoDto(video, a.blobs), nil
}

func (a *videoAppImpl) GetVideoForAudit(ctx context.Context, req *cqe.VideoURIReq) (*dto.VideoDto, error) {
	if err := validateCaller(req); err != nil {
		return nil, err
	}
	video, err := a.videos.GetForAudit(ctx, req.UserUUID, req.VideoUUID)
	if err != nil {
		return nil, err
	}
	return dto.NewVideoDto(video, a.blobs), nil
}

func (a *videoAppImpl) ListJobs(ctx context.Context, req *cqe.VideoURIReq) ([]*dto.TranscodeJobDto, error) {
	if err := validateCaller(req); err != nil {
		return nil, err
	}
	jobs, err := a.videos.ListJobs(ctx, req.UserUUID, req.VideoUUID)
	if err != nil {
		return nil, err
	}
	return dto.NewTranscodeJobDtos(jobs), nil
}

func (a *videoAppImpl) UpdateVideo(ctx context.Context, req *cqe.UpdateVideoReq) (*dto.VideoDto, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	video, err := a.videos.Update(ctx, req.UserUUID, req.VideoUUID, req.Caption, req.IsPrivate)
	if err != nil && video == nil {
		return nil, err
	}
	return dto.NewVideoDto(video, a.blobs), err
}

func (a *videoAppImpl) DeleteVideo(ctx context.Context, req *cqe.VideoURIReq) error {
	if err := validateCaller(req); err != nil {
		return err
	}
	return a.videos.Delete(ctx, req.UserUUID, req.VideoUUID)
}

func (a *videoAppImpl) Like(ctx context.Context, req *cqe.VideoURIReq) (*dto.LikeDto, error) {
	if err := validateCaller(req); err != nil {
		return nil, err
	}
	changed, err := a.videos.Like(ctx, req.UserUUID, req.VideoUUID)
	if err != nil {
		return nil, err
	}
	return &dto.LikeDto{VideoUUID: req.VideoUUID, Liked: true, Changed: changed}, nil
}

func (a *videoAppImpl) Unlike(ctx context.Context, req *cqe.VideoURIReq) (*dto.LikeDto, error) {
	if err := validateCaller(req); err != nil {
		return nil, err
	}
	changed, err := a.videos.Unlike(ctx, req.UserUUID, req.VideoUUID)
	if err != nil {
		return nil, err
	}
	return &dto.LikeDto{VideoUUID: req.VideoUUID, Liked: false, Changed: changed}, nil
}

func (a *videoAppImpl) RecordView(ctx context.Context, req *cqe.VideoURIReq) error {
	if err := req.Validate(); err != nil {
		return err
	}
	// 观看计数只对可见视频生效
	if _, err := a.videos.Get(ctx, req.UserUUID, req.VideoUUID); err != nil {
		return err
	}
	return a.videos.RecordView(ctx, req.VideoUUID)
}

func (a *videoAppImpl) RecordShare(ctx context.Context, req *cqe.VideoURIReq) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := a.videos.Get(ctx, req.UserUUID, req.VideoUUID); err != nil {
		return err
	}
	return a.videos.RecordShare(ctx, req.VideoUUID)
}

func (a *videoAppImpl) ApplyInteraction(ctx context.Context, event *cqe.InteractionEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	switch event.Type {
	case cqe.InteractionView:
		return a.videos.RecordView(ctx, event.VideoID)
	case cqe.InteractionShare:
		return a.videos.RecordShare(ctx, event.VideoID)
	default:
		return a.videos.AdjustCommentCount(ctx, event.VideoID, event.Delta)
	}
}

func (a *videoAppImpl) Feed(ctx context.Context, kind vo.FeedKind, req *cqe.FeedReq) (*vo.VideoPage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var filter vo.FeedFilter
	switch kind {
	case vo.FeedTrending:
		filter = vo.TrendingFeed()
	case vo.FeedHashtag:
		filter = vo.HashtagFeed(req.Hashtag)
	case vo.FeedOwner:
		filter = vo.OwnerFeed(req.OwnerID, req.UserUUID)
	default:
		filter = vo.LatestFeed()
	}
	return a.feed.GetPage(ctx, filter, req.Page)
}

func validateCaller(req *cqe.VideoURIReq) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.UserUUID == "" {
		return errno.ErrUnauthorized
	}
	return nil
}

// openUpload 打开 multipart 文件，fh 为空时返回空文件
func openUpload(fh *multipart.FileHeader) (*service.UploadFile, func(), error) {
	if fh == nil {
		return nil, func() {}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, errno.NewBizError(errno.ErrInvalidParam, err)
	}
	return &service.UploadFile{Filename: fh.Filename, Size: fh.Size, Content: f}, func() {
		if cerr := f.Close(); cerr != nil {
			logger.Warnf("close upload file failed name=%s err=%v", fh.Filename, cerr)
		}
	}, nil
}
