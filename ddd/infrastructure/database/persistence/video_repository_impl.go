package persistence

import (
	"context"

	"gorm.io/gorm"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/repo"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/ddd/infrastructure/database/convertor"
	"video-ingest-service/ddd/infrastructure/database/dao"
	"video-ingest-service/ddd/infrastructure/database/po"
)

type videoRepositoryImpl struct {
	videoDao  *dao.VideoDAO
	convertor *convertor.VideoConvertor
}

func NewVideoRepository() repo.VideoRepository {
	return &videoRepositoryImpl{
		videoDao:  dao.NewVideoDAO(),
		convertor: convertor.NewVideoConvertor(),
	}
}

func NewVideoRepositoryWith(db *gorm.DB) repo.VideoRepository {
	return &videoRepositoryImpl{
		videoDao:  dao.NewVideoDAOWith(db),
		convertor: convertor.NewVideoConvertor(),
	}
}

func (r *videoRepositoryImpl) Create(ctx context.Context, video *entity.VideoEntity) error {
	return r.videoDao.Create(ctx, r.convertor.ToPO(video))
}

func (r *videoRepositoryImpl) FindByID(ctx context.Context, videoID string) (*entity.VideoEntity, error) {
	v, err := r.videoDao.FindByVideoUUID(ctx, videoID, false)
	if err != nil || v == nil {
		return nil, err
	}
	return r.convertor.ToEntity(v), nil
}

func (r *videoRepositoryImpl) FindByIDUnscoped(ctx context.Context, videoID string) (*entity.VideoEntity, error) {
	v, err := r.videoDao.FindByVideoUUID(ctx, videoID, true)
	if err != nil || v == nil {
		return nil, err
	}
	return r.convertor.ToEntity(v), nil
}

func (r *videoRepositoryImpl) MarkProcessing(ctx context.Context, videoID string, job *entity.TranscodeJobEntity) (bool, error) {
	return r.videoDao.MarkProcessing(ctx, videoID, convertor.NewTranscodeJobConvertor().ToPO(job))
}

func (r *videoRepositoryImpl) CompleteTranscode(ctx context.Context, videoID, jobHandle string, renditions []vo.Rendition, durationSeconds int) (bool, error) {
	return r.videoDao.ResolveTranscode(ctx, videoID, jobHandle, map[string]interface{}{
		"processing_status": vo.StatusCompleted.String(),
		"renditions":        po.Renditions(renditions),
		"duration":          durationSeconds,
		"failure_reason":    "",
	}, vo.JobStateComplete)
}

func (r *videoRepositoryImpl) FailTranscode(ctx context.Context, videoID, jobHandle string, state vo.JobState, reason string) (bool, error) {
	return r.videoDao.ResolveTranscode(ctx, videoID, jobHandle, map[string]interface{}{
		"processing_status": vo.StatusFailed.String(),
		"renditions":        po.Renditions{},
		"duration":          0,
		"failure_reason":    truncate(reason, 512),
	}, state)
}

func (r *videoRepositoryImpl) ResetToPending(ctx context.Context, videoID string) (bool, error) {
	return r.videoDao.UpdateStatusFrom(ctx, videoID, vo.StatusFailed, map[string]interface{}{
		"processing_status": vo.StatusPending.String(),
		"active_job_handle": "",
		"failure_reason":    "",
	})
}

func (r *videoRepositoryImpl) UpdateDetails(ctx context.Context, videoID string, changes *repo.VideoChanges) error {
	if changes.IsEmpty() {
		return nil
	}
	fields := map[string]interface{}{}
	var hashtags []po.VideoHashtag
	if changes.Caption != nil {
		fields["caption"] = *changes.Caption
		hashtags = r.convertor.ToHashtagPOs(videoID, changes.Hashtags)
	}
	if changes.IsPrivate != nil {
		fields["is_private"] = *changes.IsPrivate
	}
	return r.videoDao.UpdateDetails(ctx, videoID, fields, hashtags)
}

func (r *videoRepositoryImpl) SoftDelete(ctx context.Context, videoID string) (bool, error) {
	return r.videoDao.SoftDelete(ctx, videoID)
}

func (r *videoRepositoryImpl) AdjustCounter(ctx context.Context, videoID string, counter vo.Counter, delta int64) (bool, error) {
	return r.videoDao.AdjustCounter(ctx, videoID, counter.Column(), delta)
}

func (r *videoRepositoryImpl) AddLike(ctx context.Context, videoID, userID string) (bool, error) {
	return r.videoDao.AddLike(ctx, videoID, userID)
}

func (r *videoRepositoryImpl) RemoveLike(ctx context.Context, videoID, userID string) (bool, error) {
	return r.videoDao.RemoveLike(ctx, videoID, userID)
}

func (r *videoRepositoryImpl) Query(ctx context.Context, filter vo.FeedFilter, offset, limit int) ([]*entity.VideoEntity, int64, error) {
	rows, total, err := r.videoDao.Query(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	videos := make([]*entity.VideoEntity, 0, len(rows))
	for _, row := range rows {
		videos = append(videos, r.convertor.ToEntity(row))
	}
	return videos, total, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
