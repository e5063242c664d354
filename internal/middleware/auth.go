// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"cms-go/internal/service"
	"cms-go/pkg/log"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// 上下文中保存的键
const (
	ContextUser   = "user"
	ContextClaims = "claims"
	ContextToken  = "token"
)

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 token，校验签名、有效期和黑名单，并将完整的 User 对象存入 Gin 的上下文中。
func AuthMiddleware(userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "请求未包含有效的授权头",
			})
			return
		}

		user, claims, err := userService.Authenticate(c.Request.Context(), tokenString)
		if err != nil && !errors.Is(err, service.ErrUnauthorized) {
			// Redis 或数据库故障，不应让客户端误以为 token 失效
			log.Errorf("AuthMiddleware: 认证过程出错, path=%s, error: %v", c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "服务器内部错误",
			})
			return
		}
		if err != nil {
			log.Warnf("AuthMiddleware: 认证失败, path=%s, error: %v", c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "无效或已过期的 token",
			})
			return
		}

		// 将完整的 User 对象存储在 context 中，供后续处理函数使用
		c.Set(ContextUser, user)
		c.Set(ContextClaims, claims)
		c.Set(ContextToken, tokenString)
		c.Next()
	}
}

// BearerToken 从 "Authorization: Bearer <token>" 请求头中提取 token。
func BearerToken(c *gin.Context) (string, bool) {
	const bearerPrefix = "Bearer "
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", false
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	return tokenString, tokenString != ""
}
