package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"video-ingest-service/pkg/errno"
	"video-ingest-service/pkg/restapi"
)

// SharedSecretMiddleware 内部接口鉴权，secret 为空时拒绝所有请求
func SharedSecretMiddleware(header, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(header)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			restapi.Failed(c, errno.ErrWebhookSecret)
			c.Abort()
			return
		}
		c.Next()
	}
}
