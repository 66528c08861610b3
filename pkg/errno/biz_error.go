package errno

import (
	"errors"
	"fmt"
)

// BizError 业务错误：错误码 + 底层原因
type BizError struct {
	errno *Errno
	cause error
}

// NewBizError 包装底层错误，cause 可以为空
func NewBizError(e *Errno, cause error) *BizError {
	if e == nil {
		e = ErrUnknown
	}
	return &BizError{errno: e, cause: cause}
}

// Errorf 以格式化信息作为原因构造业务错误
func Errorf(e *Errno, format string, args ...interface{}) *BizError {
	return NewBizError(e, fmt.Errorf(format, args...))
}

func (b *BizError) Error() string {
	if b.cause == nil {
		return b.errno.Message
	}
	return b.errno.Message + ": " + b.cause.Error()
}

// Unwrap 同时暴露错误码与原因，errors.Is 对两者均生效
func (b *BizError) Unwrap() []error {
	if b.cause == nil {
		return []error{b.errno}
	}
	return []error{b.errno, b.cause}
}

func (b *BizError) Errno() *Errno { return b.errno }

func (b *BizError) Cause() error { return b.cause }

// FromError 取出最外层的错误码，无法识别时返回 ErrInternalServer
func FromError(err error) *Errno {
	if err == nil {
		return OK
	}
	var e *Errno
	if errors.As(err, &e) {
		return e
	}
	return ErrInternalServer
}

// KindOf 错误分类
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	e := FromError(err)
	if e.Kind == "" {
		return KindInternal
	}
	return e.Kind
}

// IsRetryable 存储与提交类错误可由调用方重试
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindStorage, KindSubmission:
		return true
	default:
		return false
	}
}
