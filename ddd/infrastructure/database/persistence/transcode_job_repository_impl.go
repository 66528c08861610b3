package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/repo"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/ddd/infrastructure/database/convertor"
	"video-ingest-service/ddd/infrastructure/database/dao"
)

type transcodeJobRepositoryImpl struct {
	jobDao    *dao.TranscodeJobDAO
	convertor *convertor.TranscodeJobConvertor
}

func NewTranscodeJobRepository() repo.TranscodeJobRepository {
	return &transcodeJobRepositoryImpl{
		jobDao:    dao.NewTranscodeJobDAO(),
		convertor: convertor.NewTranscodeJobConvertor(),
	}
}

func NewTranscodeJobRepositoryWith(db *gorm.DB) repo.TranscodeJobRepository {
	return &transcodeJobRepositoryImpl{
		jobDao:    dao.NewTranscodeJobDAOWith(db),
		convertor: convertor.NewTranscodeJobConvertor(),
	}
}

func (r *transcodeJobRepositoryImpl) FindByHandle(ctx context.Context, handle string) (*entity.TranscodeJobEntity, error) {
	job, err := r.jobDao.FindByHandle(ctx, handle)
	if err != nil || job == nil {
		return nil, err
	}
	return r.convertor.ToEntity(job), nil
}

func (r *transcodeJobRepositoryImpl) RecordProgress(ctx context.Context, handle string, state vo.JobState, percent int) error {
	job := entity.NewTranscodeJobEntity(handle, "", time.Time{})
	job.RecordProgress(state, percent)
	return r.jobDao.UpdateProgress(ctx, handle, job.ExternalStatus().String(), job.Progress())
}

func (r *transcodeJobRepositoryImpl) ListByVideo(ctx context.Context, videoID string) ([]*entity.TranscodeJobEntity, error) {
	rows, err := r.jobDao.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	jobs := make([]*entity.TranscodeJobEntity, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, r.convertor.ToEntity(row))
	}
	return jobs, nil
}

type followRepositoryImpl struct {
	followDao *dao.FollowDAO
}

func NewFollowRepository() repo.FollowRepository {
	return &followRepositoryImpl{followDao: dao.NewFollowDAO()}
}

func (r *followRepositoryImpl) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	if followerID == "" || followeeID == "" || followerID == followeeID {
		return false, nil
	}
	return r.followDao.Exists(ctx, followerID, followeeID)
}
