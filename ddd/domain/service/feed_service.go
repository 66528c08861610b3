package service

import (
	"context"
	"time"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/ddd/domain/repo"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/errno"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/metrics"
)

// CacheInvalidator 写路径在确认之前调用
type CacheInvalidator interface {
	Invalidate(ctx context.Context, tag string) error
}

// FeedService 视频列表读穿缓存
type FeedService interface {
	CacheInvalidator
	// GetPage 分页读取，page 从 1 开始
	GetPage(ctx context.Context, filter vo.FeedFilter, page int) (*vo.VideoPage, error)
}

type feedServiceImpl struct {
	videoRepo repo.VideoRepository
	cache     gateway.TaggedCache
	blobs     gateway.BlobStore
	cfg       config.FeedConfig
}

// NewFeedService 创建列表服务
func NewFeedService(videoRepo repo.VideoRepository, cache gateway.TaggedCache, blobs gateway.BlobStore, cfg config.FeedConfig) FeedService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 15
	}
	if cfg.TrendingLimit <= 0 {
		cfg.TrendingLimit = 50
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &feedServiceImpl{videoRepo: videoRepo, cache: cache, blobs: blobs, cfg: cfg}
}

// GetPage 命中缓存直接返回，未命中查询后写入 videos 标签
func (s *feedServiceImpl) GetPage(ctx context.Context, filter vo.FeedFilter, page int) (*vo.VideoPage, error) {
	if err := filter.Validate(); err != nil {
		return nil, errno.NewBizError(errno.ErrInvalidParam, err)
	}
	if page < 1 {
		page = 1
	}

	result := &vo.VideoPage{}
	hit, err := s.cache.Remember(ctx, vo.CacheTagVideos, filter.CacheKey(page), s.cfg.CacheTTL, result,
		func(ctx context.Context) (interface{}, error) {
			return s.load(ctx, filter, page)
		})
	if err != nil {
		return nil, err
	}
	if hit {
		metrics.FeedCacheRequests.WithLabelValues("hit").Inc()
	} else {
		metrics.FeedCacheRequests.WithLabelValues("miss").Inc()
	}
	if result.Items == nil {
		result.Items = []vo.VideoSummary{}
	}
	return result, nil
}

func (s *feedServiceImpl) load(ctx context.Context, filter vo.FeedFilter, page int) (*vo.VideoPage, error) {
	perPage := s.cfg.PageSize
	offset := (page - 1) * perPage
	limit := perPage

	// trending 只取前 TrendingLimit 条
	if filter.Kind == vo.FeedTrending {
		if offset >= s.cfg.TrendingLimit {
			return s.emptyPage(ctx, filter, page)
		}
		if remain := s.cfg.TrendingLimit - offset; remain < limit {
			limit = remain
		}
	}

	videos, total, err := s.videoRepo.Query(ctx, filter, offset, limit)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrRecordStore, err)
	}
	if filter.Kind == vo.FeedTrending && total > int64(s.cfg.TrendingLimit) {
		total = int64(s.cfg.TrendingLimit)
	}

	items := make([]vo.VideoSummary, 0, len(videos))
	for _, v := range videos {
		items = append(items, Summarize(v, s.blobs))
	}
	return &vo.VideoPage{Items: items, Meta: vo.NewPageMeta(page, perPage, total)}, nil
}

// emptyPage 超出 trending 上限的页仍返回正确的总数
func (s *feedServiceImpl) emptyPage(ctx context.Context, filter vo.FeedFilter, page int) (*vo.VideoPage, error) {
	_, total, err := s.videoRepo.Query(ctx, filter, 0, 0)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrRecordStore, err)
	}
	if total > int64(s.cfg.TrendingLimit) {
		total = int64(s.cfg.TrendingLimit)
	}
	return &vo.VideoPage{Items: []vo.VideoSummary{}, Meta: vo.NewPageMeta(page, s.cfg.PageSize, total)}, nil
}

// Invalidate 整个标签失效
func (s *feedServiceImpl) Invalidate(ctx context.Context, tag string) error {
	if err := s.cache.Flush(ctx, tag); err != nil {
		metrics.CacheInvalidations.WithLabelValues(tag, "error").Inc()
		logger.Errorf("flush cache tag failed tag=%s err=%v", tag, err)
		return errno.NewBizError(errno.ErrCacheInvalidate, err)
	}
	metrics.CacheInvalidations.WithLabelValues(tag, "ok").Inc()
	return nil
}

// Summarize 列表项，地址均为对外 URL
func Summarize(v *entity.VideoEntity, blobs gateway.BlobStore) vo.VideoSummary {
	renditions := make([]vo.RenditionURL, 0, len(v.Renditions()))
	for _, r := range v.Renditions() {
		renditions = append(renditions, vo.RenditionURL{Label: r.Label, URL: blobs.PublicURL(r.Locator)})
	}
	summary := vo.VideoSummary{
		ID:               v.ID(),
		OwnerID:          v.OwnerID(),
		Caption:          v.Caption(),
		Renditions:       renditions,
		DurationSeconds:  v.DurationSeconds(),
		IsPrivate:        v.IsPrivate(),
		ProcessingStatus: v.Status().String(),
		ViewsCount:       v.ViewsCount(),
		LikesCount:       v.LikesCount(),
		CommentsCount:    v.CommentsCount(),
		SharesCount:      v.SharesCount(),
		Hashtags:         v.Hashtags(),
		CreatedAt:        v.CreatedAt(),
	}
	if v.ThumbnailLocator() != "" {
		summary.ThumbnailURL = blobs.PublicURL(v.ThumbnailLocator())
	}
	return summary
}
