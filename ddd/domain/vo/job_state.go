package vo

import "strings"

// JobState 外部转码服务上报的作业状态
type JobState string

const (
	JobStateSubmitted   JobState = "SUBMITTED"
	JobStateProgressing JobState = "PROGRESSING"
	JobStateComplete    JobState = "COMPLETE"
	JobStateError       JobState = "ERROR"
	JobStateCanceled    JobState = "CANCELED"
)

// ParseJobState 兼容 MediaConvert 事件中的进度类状态
func ParseJobState(s string) (JobState, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUBMITTED":
		return JobStateSubmitted, true
	case "PROGRESSING", "STATUS_UPDATE", "INPUT_INFORMATION", "NEW_WARNING", "QUEUE_HOP":
		return JobStateProgressing, true
	case "COMPLETE":
		return JobStateComplete, true
	case "ERROR":
		return JobStateError, true
	case "CANCELED", "CANCELLED":
		return JobStateCanceled, true
	default:
		return "", false
	}
}

func (s JobState) String() string { return string(s) }

// IsTerminal 终态
func (s JobState) IsTerminal() bool {
	return s == JobStateComplete || s == JobStateError || s == JobStateCanceled
}

// IsSuccess 成功终态
func (s JobState) IsSuccess() bool { return s == JobStateComplete }
