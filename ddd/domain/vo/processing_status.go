package vo

import "fmt"

// ProcessingStatus 视频处理状态
type ProcessingStatus string

const (
	// StatusPending 已入库，等待转码作业提交成功
	StatusPending ProcessingStatus = "pending"
	// StatusProcessing 转码作业已提交
	StatusProcessing ProcessingStatus = "processing"
	// StatusCompleted 转码完成，清晰度列表可播放
	StatusCompleted ProcessingStatus = "completed"
	// StatusFailed 转码失败，可由所有者重新提交
	StatusFailed ProcessingStatus = "failed"
)

// NewProcessingStatusFromString 解析状态字符串
func NewProcessingStatusFromString(s string) (ProcessingStatus, error) {
	st := ProcessingStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid processing status %q", s)
	}
	return st, nil
}

// IsValid 检查状态是否有效
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// String 返回状态字符串
func (s ProcessingStatus) String() string {
	return string(s)
}

// IsTerminal completed 与 failed 不再接受转码回调
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo 状态机：pending → processing → completed|failed，failed 仅可回到 pending
func (s ProcessingStatus) CanTransitionTo(target ProcessingStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusProcessing
	case StatusProcessing:
		return target == StatusCompleted || target == StatusFailed
	case StatusFailed:
		return target == StatusPending
	default:
		return false
	}
}

// AllProcessingStatuses 全部状态
func AllProcessingStatuses() []ProcessingStatus {
	return []ProcessingStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}
}
