package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/errno"
	"video-ingest-service/pkg/restapi"
)

// Claims 访问令牌载荷，subject 为用户 UUID
type Claims struct {
	jwt.RegisteredClaims
}

// ParseToken 校验 HS256 令牌并返回用户 UUID
func ParseToken(cfg config.JWTConfig, raw string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token subject is empty")
	}
	return claims.Subject, nil
}

// AuthMiddleware 解析 Bearer 令牌。令牌缺失时放行为匿名请求，令牌无效时拒绝。
func AuthMiddleware(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || cfg.Secret == "" {
			restapi.Failed(c, errno.ErrUnauthorized)
			c.Abort()
			return
		}
		userUUID, err := ParseToken(cfg, strings.TrimSpace(raw))
		if err != nil {
			restapi.Failed(c, errno.NewBizError(errno.ErrUnauthorized, err))
			c.Abort()
			return
		}
		c.Set(ContextKeyUserUUID, userUUID)
		c.Next()
	}
}

// RequireAuth 要求已认证调用者
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserUUID(c) == "" {
			restapi.Failed(c, errno.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
