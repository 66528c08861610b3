package po

import "time"

// TranscodeJob 外部转码作业与视频的关联
type TranscodeJob struct {
	BaseModel
	JobHandle      string     `gorm:"column:job_handle;type:varchar(128);uniqueIndex" json:"job_handle"`
	VideoUUID      string     `gorm:"column:video_uuid;type:varchar(36);index" json:"video_uuid"`
	SubmittedAt    time.Time  `gorm:"column:submitted_at" json:"submitted_at"`
	ExternalStatus string     `gorm:"column:external_status;type:varchar(20)" json:"external_status"`
	Progress       int        `gorm:"column:progress;type:int;default:0" json:"progress"`
	Superseded     bool       `gorm:"column:superseded;default:false" json:"superseded"`
	ResolvedAt     *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
}

// TableName 指定表名
func (TranscodeJob) TableName() string {
	return "transcode_jobs"
}
