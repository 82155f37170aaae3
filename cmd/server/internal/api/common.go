package api

import (
	"github.com/gin-gonic/gin"

	"github.com/teamplanhq/weekplan/cmd/server/internal/middleware"
)

// currentUserID 获取认证中间件注入的用户 ID
func currentUserID(c *gin.Context) string {
	return middleware.CurrentUserID(c)
}

// errorResponse 返回错误响应
func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"error": message,
	})
}

// successResponse 返回成功响应
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

// notFoundResponse 返回 404 响应
func notFoundResponse(c *gin.Context, resource string) {
	c.JSON(404, gin.H{
		"error": resource + " not found",
	})
}

// badRequestResponse 返回 400 响应
func badRequestResponse(c *gin.Context, message string) {
	c.JSON(400, gin.H{
		"error": message,
	})
}

// internalErrorResponse 返回 500 响应
func internalErrorResponse(c *gin.Context, err error) {
	c.JSON(500, gin.H{
		"error":  "internal server error",
		"detail": err.Error(),
	})
}
