package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/ddd/infrastructure/database/po"
	"video-ingest-service/internal/resource"
)

type VideoDAO struct {
	db *gorm.DB
}

func NewVideoDAO() *VideoDAO {
	return &VideoDAO{db: resource.DefaultMysqlResource().MainDB()}
}

func NewVideoDAOWith(db *gorm.DB) *VideoDAO {
	return &VideoDAO{db: db}
}

func (d *VideoDAO) Create(ctx context.Context, video *po.Video) error {
	return d.db.WithContext(ctx).Create(video).Error
}

// FindByVideoUUID 不存在时返回 (nil, nil)
func (d *VideoDAO) FindByVideoUUID(ctx context.Context, videoUUID string, unscoped bool) (*po.Video, error) {
	q := d.db.WithContext(ctx).Preload("Hashtags", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
	if unscoped {
		q = q.Unscoped()
	}
	var video po.Video
	if err := q.Where("video_uuid = ?", videoUUID).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &video, nil
}

// MarkProcessing pending -> processing，同时取代旧作业并写入新作业
func (d *VideoDAO) MarkProcessing(ctx context.Context, videoUUID string, job *po.TranscodeJob) (bool, error) {
	changed := false
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&po.Video{}).
			Where("video_uuid = ? AND processing_status = ?", videoUUID, vo.StatusPending.String()).
			Updates(map[string]interface{}{
				"processing_status": vo.StatusProcessing.String(),
				"active_job_handle": job.JobHandle,
				"failure_reason":    "",
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Model(&po.TranscodeJob{}).
			Where("video_uuid = ? AND superseded = ?", videoUUID, false).
			Update("superseded", true).Error; err != nil {
			return err
		}
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}

// ResolveTranscode processing -> completed|failed，仅当 handle 仍为当前作业
func (d *VideoDAO) ResolveTranscode(ctx context.Context, videoUUID, handle string, fields map[string]interface{}, jobStatus vo.JobState) (bool, error) {
	changed := false
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&po.Video{}).
			Where("video_uuid = ? AND processing_status = ? AND active_job_handle = ?",
				videoUUID, vo.StatusProcessing.String(), handle).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		jobFields := map[string]interface{}{
			"external_status": jobStatus.String(),
			"resolved_at":     time.Now(),
		}
		if jobStatus.IsSuccess() {
			jobFields["progress"] = 100
		}
		if err := tx.Model(&po.TranscodeJob{}).Where("job_handle = ?", handle).Updates(jobFields).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}

// UpdateStatusFrom 条件状态更新
func (d *VideoDAO) UpdateStatusFrom(ctx context.Context, videoUUID string, from vo.ProcessingStatus, fields map[string]interface{}) (bool, error) {
	res := d.db.WithContext(ctx).Model(&po.Video{}).
		Where("video_uuid = ? AND processing_status = ?", videoUUID, from.String()).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

// UpdateDetails hashtags 非 nil 时整体替换话题
func (d *VideoDAO) UpdateDetails(ctx context.Context, videoUUID string, fields map[string]interface{}, hashtags []po.VideoHashtag) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&po.Video{}).Where("video_uuid = ?", videoUUID).Updates(fields).Error; err != nil {
				return err
			}
		}
		if hashtags == nil {
			return nil
		}
		if err := tx.Where("video_uuid = ?", videoUUID).Delete(&po.VideoHashtag{}).Error; err != nil {
			return err
		}
		if len(hashtags) == 0 {
			return nil
		}
		return tx.Create(&hashtags).Error
	})
}

func (d *VideoDAO) SoftDelete(ctx context.Context, videoUUID string) (bool, error) {
	res := d.db.WithContext(ctx).Where("video_uuid = ?", videoUUID).Delete(&po.Video{})
	return res.RowsAffected > 0, res.Error
}

// AdjustCounter column 必须来自 vo.Counter.Column()
func (d *VideoDAO) AdjustCounter(ctx context.Context, videoUUID, column string, delta int64) (bool, error) {
	return adjustCounter(d.db.WithContext(ctx), videoUUID, column, delta)
}

func (d *VideoDAO) AddLike(ctx context.Context, videoUUID, userUUID string) (bool, error) {
	changed := false
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&po.VideoLike{VideoUUID: videoUUID, UserUUID: userUUID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		ok, err := adjustCounter(tx, videoUUID, vo.CounterLikes.Column(), 1)
		changed = ok
		return err
	})
	return changed, err
}

func (d *VideoDAO) RemoveLike(ctx context.Context, videoUUID, userUUID string) (bool, error) {
	changed := false
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("video_uuid = ? AND user_uuid = ?", videoUUID, userUUID).Delete(&po.VideoLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		ok, err := adjustCounter(tx, videoUUID, vo.CounterLikes.Column(), -1)
		changed = ok
		return err
	})
	return changed, err
}

// Query limit <= 0 时只统计总数
func (d *VideoDAO) Query(ctx context.Context, filter vo.FeedFilter, offset, limit int) ([]*po.Video, int64, error) {
	var total int64
	if err := d.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 || total == 0 {
		return nil, total, nil
	}

	order := "created_at DESC, id DESC"
	if filter.Kind == vo.FeedTrending {
		order = "views_count DESC, likes_count DESC, created_at DESC"
	}
	var videos []*po.Video
	err := d.filtered(ctx, filter).Preload("Hashtags", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order(order).Offset(offset).Limit(limit).Find(&videos).Error
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

func (d *VideoDAO) filtered(ctx context.Context, filter vo.FeedFilter) *gorm.DB {
	q := d.db.WithContext(ctx).Model(&po.Video{})
	switch filter.Kind {
	case vo.FeedOwner:
		q = q.Where("owner_uuid = ?", filter.OwnerID)
		if !filter.IncludeHidden {
			q = publicScope(q)
		}
	case vo.FeedHashtag:
		sub := d.db.Model(&po.VideoHashtag{}).Select("video_uuid").Where("tag = ?", filter.Hashtag)
		q = publicScope(q).Where("video_uuid IN (?)", sub)
	default:
		q = publicScope(q)
	}
	return q
}

func publicScope(q *gorm.DB) *gorm.DB {
	return q.Where("is_private = ? AND is_approved = ? AND processing_status = ?",
		false, true, vo.StatusCompleted.String())
}

// adjustCounter MySQL 只统计实际变化的行，结果未变时再确认记录是否存在
func adjustCounter(db *gorm.DB, videoUUID, column string, delta int64) (bool, error) {
	if column == "" {
		return false, fmt.Errorf("unknown counter column")
	}
	res := db.Model(&po.Video{}).Where("video_uuid = ?", videoUUID).
		UpdateColumn(column, gorm.Expr(fmt.Sprintf("GREATEST(CAST(%s AS SIGNED) + ?, 0)", column), delta))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	var count int64
	if err := db.Model(&po.Video{}).Where("video_uuid = ?", videoUUID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
