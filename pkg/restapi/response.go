package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"video-ingest-service/pkg/errno"
)

// Response 统一响应体
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Success 200 成功响应
func Success(ctx *gin.Context, data interface{}) {
	write(ctx, http.StatusOK, errno.OK.Code, errno.OK.Message, data)
}

// Created 201 资源已创建
func Created(ctx *gin.Context, data interface{}) {
	write(ctx, http.StatusCreated, errno.OK.Code, errno.OK.Message, data)
}

// Accepted 202 资源已持久化但后续步骤失败，携带错误码与数据，调用方可据此重试
func Accepted(ctx *gin.Context, data interface{}, err error) {
	e := errno.FromError(err)
	write(ctx, http.StatusAccepted, e.Code, messageOf(err), data)
}

// Failed 失败响应，按错误分类映射 HTTP 状态
func Failed(ctx *gin.Context, err error) {
	e := errno.FromError(err)
	write(ctx, HTTPStatus(err), e.Code, messageOf(err), nil)
}

// HTTPStatus 错误分类到 HTTP 状态码
func HTTPStatus(err error) int {
	switch errno.KindOf(err) {
	case errno.KindValidation:
		return http.StatusBadRequest
	case errno.KindUnauthenticated:
		return http.StatusUnauthorized
	case errno.KindAuthorization:
		return http.StatusForbidden
	case errno.KindNotFound:
		return http.StatusNotFound
	case errno.KindConflict:
		return http.StatusConflict
	case errno.KindThrottled:
		return http.StatusTooManyRequests
	case errno.KindStorage:
		return http.StatusServiceUnavailable
	case errno.KindSubmission:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageOf 存储/内部错误只暴露错误码文案，其余返回完整原因
func messageOf(err error) string {
	switch errno.KindOf(err) {
	case errno.KindStorage, errno.KindInternal, errno.KindSubmission:
		return errno.FromError(err).Message
	default:
		return err.Error()
	}
}

func write(ctx *gin.Context, status, code int, message string, data interface{}) {
	resp := Response{Code: code, Message: message, Data: data}
	if v, ok := ctx.Get("request_id"); ok {
		if id, ok := v.(string); ok {
			resp.RequestID = id
		}
	}
	ctx.JSON(status, resp)
}
