package po

import (
	"time"

	"gorm.io/gorm"
)

// Video 视频持久化对象
type Video struct {
	BaseModel
	VideoUUID        string         `gorm:"column:video_uuid;type:varchar(36);uniqueIndex" json:"video_uuid"`
	OwnerUUID        string         `gorm:"column:owner_uuid;type:varchar(36);index" json:"owner_uuid"`
	Caption          string         `gorm:"column:caption;type:varchar(1024)" json:"caption"`
	InputPath        string         `gorm:"column:input_path;type:varchar(512);not null" json:"input_path"`
	ThumbnailPath    string         `gorm:"column:thumbnail_path;type:varchar(512)" json:"thumbnail_path"`
	Renditions       Renditions     `gorm:"column:renditions;type:json" json:"renditions"`
	Duration         int            `gorm:"column:duration;type:int;default:0" json:"duration"`
	IsPrivate        bool           `gorm:"column:is_private;default:false" json:"is_private"`
	IsApproved       bool           `gorm:"column:is_approved;default:true" json:"is_approved"`
	ViewsCount       int64          `gorm:"column:views_count;default:0" json:"views_count"`
	LikesCount       int64          `gorm:"column:likes_count;default:0" json:"likes_count"`
	CommentsCount    int64          `gorm:"column:comments_count;default:0" json:"comments_count"`
	SharesCount      int64          `gorm:"column:shares_count;default:0" json:"shares_count"`
	ProcessingStatus string         `gorm:"column:processing_status;type:varchar(20);index" json:"processing_status"`
	ActiveJobHandle  string         `gorm:"column:active_job_handle;type:varchar(128);index" json:"active_job_handle"`
	FailureReason    string         `gorm:"column:failure_reason;type:varchar(512)" json:"failure_reason"`
	DeletedAt        gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`

	Hashtags []VideoHashtag `gorm:"foreignKey:VideoUUID;references:VideoUUID" json:"hashtags,omitempty"`
}

// TableName 指定表名
func (Video) TableName() string {
	return "videos"
}

// VideoHashtag 视频话题
type VideoHashtag struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	VideoUUID string    `gorm:"column:video_uuid;type:varchar(36);uniqueIndex:uk_video_tag,priority:1" json:"video_uuid"`
	Tag       string    `gorm:"column:tag;type:varchar(100);uniqueIndex:uk_video_tag,priority:2;index" json:"tag"`
	Position  int       `gorm:"column:position;type:int" json:"position"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName 指定表名
func (VideoHashtag) TableName() string {
	return "video_hashtags"
}

// VideoLike 点赞记录，(video, user) 唯一
type VideoLike struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	VideoUUID string    `gorm:"column:video_uuid;type:varchar(36);uniqueIndex:uk_video_user,priority:1" json:"video_uuid"`
	UserUUID  string    `gorm:"column:user_uuid;type:varchar(36);uniqueIndex:uk_video_user,priority:2" json:"user_uuid"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName 指定表名
func (VideoLike) TableName() string {
	return "video_likes"
}

// Follow 关注关系，由用户服务维护，这里只读
type Follow struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	FollowerUUID string `gorm:"column:follower_uuid;type:varchar(36);index" json:"follower_uuid"`
	FolloweeUUID string `gorm:"column:followee_uuid;type:varchar(36);index" json:"followee_uuid"`
}

// TableName 指定表名
func (Follow) TableName() string {
	return "follows"
}
