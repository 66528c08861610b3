package po

import "gorm.io/gorm"

// AutoMigrate 创建本服务拥有的表；follows 由用户服务维护，不在此迁移
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Video{}, &VideoHashtag{}, &VideoLike{}, &TranscodeJob{})
}
