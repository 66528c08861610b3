package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextKeyRequestID = "request_id"
	ContextKeyUserUUID  = "user_uuid"
)

// RequestContextMiddleware 注入 request_id，便于下游和日志使用。
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Next()
	}
}

// UserUUID 当前请求的调用者，未认证时为空
func UserUUID(c *gin.Context) string {
	if v, ok := c.Get(ContextKeyUserUUID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
