package errno

// code=0 请求成功
// code=4xx 客户端请求错误
// code=5xx 服务器端错误
// code=2xxxx 业务处理错误码

// Kind 错误分类，决定边界层的 HTTP 状态与是否可重试
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindAuthorization   Kind = "authorization"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindThrottled       Kind = "throttled"
	KindStorage         Kind = "storage"
	KindSubmission      Kind = "submission"
	KindReconciliation  Kind = "reconciliation"
	KindInternal        Kind = "internal"
)

type Errno struct {
	Code    int
	Message string
	Kind    Kind
}

// Error 实现error接口
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 200, Message: "Success"}

	ErrInvalidParam    = &Errno{Code: 400, Message: "Invalid parameter", Kind: KindValidation}
	ErrUnauthorized    = &Errno{Code: 401, Message: "Unauthorized", Kind: KindUnauthenticated}
	ErrNotFound        = &Errno{Code: 404, Message: "Not found", Kind: KindNotFound}
	ErrTooManyRequests = &Errno{Code: 429, Message: "Too many requests", Kind: KindThrottled}

	ErrInternalServer = &Errno{Code: 500, Message: "Internal server error", Kind: KindInternal}
	ErrDatabase       = &Errno{Code: 501, Message: "Database error", Kind: KindStorage}
	ErrUnknown        = &Errno{Code: 510, Message: "Unknown error", Kind: KindInternal}

	// 上传校验错误码
	ErrVideoFileRequired       = &Errno{Code: 20001, Message: "Video file is required", Kind: KindValidation}
	ErrVideoTooLarge           = &Errno{Code: 20002, Message: "Video file exceeds the size limit", Kind: KindValidation}
	ErrVideoTypeNotAllowed     = &Errno{Code: 20003, Message: "Video file type is not allowed", Kind: KindValidation}
	ErrThumbnailTooLarge       = &Errno{Code: 20004, Message: "Thumbnail exceeds the size limit", Kind: KindValidation}
	ErrThumbnailTypeNotAllowed = &Errno{Code: 20005, Message: "Thumbnail type is not allowed", Kind: KindValidation}
	ErrThumbnailDimensions     = &Errno{Code: 20006, Message: "Thumbnail is smaller than the minimum dimensions", Kind: KindValidation}
	ErrThumbnailAspectRatio    = &Errno{Code: 20007, Message: "Thumbnail must have a 9:16 aspect ratio", Kind: KindValidation}
	ErrCaptionTooLong          = &Errno{Code: 20008, Message: "Caption is too long", Kind: KindValidation}
	ErrVideoUUIDRequired       = &Errno{Code: 20009, Message: "Video UUID is required", Kind: KindValidation}
	ErrHashtagTooLong          = &Errno{Code: 20010, Message: "Hashtag is too long", Kind: KindValidation}

	// 存储与提交错误码
	ErrBlobStore        = &Errno{Code: 20101, Message: "Blob store error", Kind: KindStorage}
	ErrRecordStore      = &Errno{Code: 20102, Message: "Video record store error", Kind: KindStorage}
	ErrCacheInvalidate  = &Errno{Code: 20103, Message: "Feed cache invalidation failed", Kind: KindStorage}
	ErrJobSubmission    = &Errno{Code: 20104, Message: "Transcode job submission failed", Kind: KindSubmission}
	ErrCleanupQueueFull = &Errno{Code: 20105, Message: "Blob cleanup queue is full", Kind: KindInternal}

	// 视频访问错误码
	ErrVideoNotFound       = &Errno{Code: 20201, Message: "Video not found", Kind: KindNotFound}
	ErrNotVideoOwner       = &Errno{Code: 20202, Message: "Only the owner can modify this video", Kind: KindAuthorization}
	ErrVideoPrivate        = &Errno{Code: 20203, Message: "This video is private", Kind: KindAuthorization}
	ErrNotResubmittable    = &Errno{Code: 20204, Message: "Video is not eligible for resubmission", Kind: KindConflict}
	ErrInvalidStatusChange = &Errno{Code: 20205, Message: "Invalid processing status transition", Kind: KindConflict}

	// 转码状态回调错误码
	ErrUnknownJob        = &Errno{Code: 20301, Message: "Unknown transcode job handle", Kind: KindReconciliation}
	ErrStaleJobUpdate    = &Errno{Code: 20302, Message: "Transcode job update is stale", Kind: KindReconciliation}
	ErrMalformedJobEvent = &Errno{Code: 20303, Message: "Malformed transcode job event", Kind: KindValidation}
	ErrWebhookSecret     = &Errno{Code: 20304, Message: "Webhook secret mismatch", Kind: KindUnauthenticated}
)
