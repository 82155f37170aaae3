package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/teamplanhq/weekplan/cmd/server/internal/users"
	"github.com/teamplanhq/weekplan/pkg/logger"
)

// context key，handler 通过 CurrentUserID 读取
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// RequireAuth 校验 Bearer token 并把用户信息写入 context
func RequireAuth(manager *users.Manager) gin.HandlerFunc {
	authLogger := logger.L().With("component", "auth")

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if len(auth) < 8 || !strings.HasPrefix(auth, "Bearer ") {
			authPreview := auth
			if len(authPreview) > 20 {
				authPreview = authPreview[:20] + "..."
			}
			authLogger.Warn("missing bearer token",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"auth_preview", authPreview,
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := manager.VerifyToken(auth[7:])
		if err != nil {
			authLogger.Warn("invalid token",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// CurrentUserID 返回认证中间件写入的用户 ID
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
