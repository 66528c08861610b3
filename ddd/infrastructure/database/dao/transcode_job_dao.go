package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"video-ingest-service/ddd/infrastructure/database/po"
	"video-ingest-service/internal/resource"
)

type TranscodeJobDAO struct {
	db *gorm.DB
}

func NewTranscodeJobDAO() *TranscodeJobDAO {
	return &TranscodeJobDAO{db: resource.DefaultMysqlResource().MainDB()}
}

func NewTranscodeJobDAOWith(db *gorm.DB) *TranscodeJobDAO {
	return &TranscodeJobDAO{db: db}
}

func (d *TranscodeJobDAO) FindByHandle(ctx context.Context, handle string) (*po.TranscodeJob, error) {
	var job po.TranscodeJob
	if err := d.db.WithContext(ctx).Where("job_handle = ?", handle).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// UpdateProgress 已有终态的作业不再更新
func (d *TranscodeJobDAO) UpdateProgress(ctx context.Context, handle, status string, progress int) error {
	return d.db.WithContext(ctx).Model(&po.TranscodeJob{}).
		Where("job_handle = ? AND resolved_at IS NULL", handle).
		Updates(map[string]interface{}{"external_status": status, "progress": progress}).Error
}

func (d *TranscodeJobDAO) ListByVideo(ctx context.Context, videoUUID string) ([]*po.TranscodeJob, error) {
	var jobs []*po.TranscodeJob
	err := d.db.WithContext(ctx).Where("video_uuid = ?", videoUUID).Order("submitted_at DESC").Find(&jobs).Error
	return jobs, err
}

type FollowDAO struct {
	db *gorm.DB
}

func NewFollowDAO() *FollowDAO {
	return &FollowDAO{db: resource.DefaultMysqlResource().MainDB()}
}

func (d *FollowDAO) Exists(ctx context.Context, followerUUID, followeeUUID string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&po.Follow{}).
		Where("follower_uuid = ? AND followee_uuid = ?", followerUUID, followeeUUID).
		Count(&count).Error
	return count > 0, err
}
