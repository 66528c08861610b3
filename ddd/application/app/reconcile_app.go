package app

import (
	"context"
	"sync"

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
)

var (
	singleReconcileApp ReconcileApp
	onceReconcileApp   sync.Once
)

// ReconcileApp 转码状态回调入口（SQS 轮询与 webhook 共用）
type ReconcileApp interface {
	// HandleJobEvent 解码原始事件并处理；无法解码时返回 ErrMalformedJobEvent
	HandleJobEvent(ctx context.Context, payload []byte) error
	HandleJobUpdate(ctx context.Context, update *vo.JobUpdate) error
}

// JobEventDecoder 原始事件解码
type JobEventDecoder interface {
	Decode(payload []byte) (*vo.JobUpdate, error)
}

type reconcileAppImpl struct {
	decoder    JobEventDecoder
	reconciler service.ReconcileService
}

func DefaultReconcileApp() ReconcileApp {
	assert.NotCircular()
	onceReconcileApp.Do(func() {
		cfg := config.GetGlobalConfig()
		if cfg == nil {
			panic("global config not initialized before ReconcileApp")
		}
		videoRepo := persistence.NewVideoRepository()
		feed := service.NewFeedService(videoRepo, cache.DefaultTaggedCache(), storage.DefaultBlobStore(), cfg.Feed)
		reconciler := service.NewReconcileService(videoRepo, persistence.NewTranscodeJobRepository(), feed,
			notify.DefaultNotifier(), queue.DefaultCleanupQueue(), cfg.Ingest)
		decoder := transcoder.NewEventDecoder(cfg.Storage.Bucket, transcoder.PresetsFromConfig(cfg.AWS.MediaConvert.Presets))
		singleReconcileApp = NewReconcileAppWith(decoder, reconciler)
	})
	assert.NotNil(singleReconcileApp)
	return singleReconcileApp
}

func NewReconcileAppWith(decoder JobEventDecoder, reconciler service.ReconcileService) ReconcileApp {
	return &reconcileAppImpl{decoder: decoder, reconciler: reconciler}
}

func (a *reconcileAppImpl) HandleJobEvent(ctx context.Context, payload []byte) error {
	update, err := a.decoder.Decode(payload)
	if err != nil {
		return errno.NewBizError(errno.ErrMalformedJobEvent, err)
	}
	return a.HandleJobUpdate(ctx, update)
}

func (a *reconcileAppImpl) HandleJobUpdate(ctx context.Context, update *vo.JobUpdate) error {
	if update == nil || update.Handle == "" {
		return errno.ErrMalformedJobEvent
	}
	return a.reconciler.OnJobUpdate(ctx, update)
}
