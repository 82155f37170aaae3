package api

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teamplanhq/weekplan/cmd/server/internal/audit"
	"github.com/teamplanhq/weekplan/cmd/server/internal/plans"
	"github.com/teamplanhq/weekplan/cmd/server/internal/users"
)

// rewriteTimeout 档案变更后历史计划快照重写的后台超时
const rewriteTimeout = 30 * time.Second

// HandleUpdateProfile PUT /api/v1/me/profile
// 更新档案后异步重写该用户全部历史计划上的姓名/部门快照
// 重写是尽力而为的：失败只记日志，不回滚档案
func HandleUpdateProfile(manager *users.Manager, planSvc *plans.Service, auditLog audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentUserID(c)

		var req users.Profile
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}

		before, ok := manager.Get(userID)
		if !ok {
			notFoundResponse(c, "user")
			return
		}

		u, err := manager.UpdateProfile(userID, req)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				notFoundResponse(c, "user")
			} else {
				badRequestResponse(c, err.Error())
			}
			return
		}

		_ = auditLog.LogAction(userID, audit.ActionUpdateProfile, userID,
			gin.H{"name": before.Name, "department": before.Department},
			gin.H{"name": u.Name, "department": u.Department}, "")

		if before.Name != u.Name || before.Department != u.Department {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), rewriteTimeout)
				defer cancel()
				planSvc.RewriteUserInfo(ctx, userID, u.Name, u.Department)
			}()
		}

		successResponse(c, u)
	}
}

// HandleListUsers GET /api/v1/users
// 团队成员目录，脱敏后的全量用户列表
func HandleListUsers(manager *users.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		successResponse(c, gin.H{"data": manager.List()})
	}
}
