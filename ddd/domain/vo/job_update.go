package vo

// JobUpdate 一次转码作业状态回调
type JobUpdate struct {
	Handle string
	State  JobState
	// VideoID 来自作业元数据，仅用于日志，归属以作业记录为准
	VideoID         string
	Percent         int
	Outputs         []Rendition
	DurationSeconds int
	Width           int
	Height          int
	ErrorMessage    string
}

// HasDimensions 是否上报了输出分辨率
func (u *JobUpdate) HasDimensions() bool {
	return u.Width > 0 && u.Height > 0
}
