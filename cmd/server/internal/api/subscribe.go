package api

import (
	"io"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/teamplanhq/weekplan/cmd/server/internal/models"
	"github.com/teamplanhq/weekplan/cmd/server/internal/plans"
	"github.com/teamplanhq/weekplan/cmd/server/internal/week"
	"github.com/teamplanhq/weekplan/pkg/metrics"
)

// HandleSubscribeWeek GET /api/v1/plans/:week/subscribe
// SSE 订阅：连接即推送一次完整快照，之后该周每次写入都推送新的完整快照
// ?mine=1 时只订阅当前用户自己的计划
// 客户端断开时自动退订
func HandleSubscribeWeek(store *plans.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		weekID := week.Identifier(c.Param("week"))
		if !week.Valid(weekID) {
			badRequestResponse(c, "invalid week identifier")
			return
		}

		// 只保留最新快照：慢客户端跳过中间版本而不是排队
		var mu sync.Mutex
		var latest []models.WeeklyPlan
		notify := make(chan struct{}, 1)
		snapshot := func(ps []models.WeeklyPlan) {
			mu.Lock()
			latest = ps
			mu.Unlock()
			select {
			case notify <- struct{}{}:
			default:
			}
		}

		scope := "week"
		var unsubscribe plans.Unsubscribe
		if c.Query("mine") == "1" {
			scope = "user_week"
			unsubscribe = store.Subscribe(currentUserID(c), string(weekID), snapshot)
		} else {
			unsubscribe = store.SubscribeWeek(string(weekID), snapshot)
		}
		defer unsubscribe()

		metrics.SubscriptionOpened(scope)
		defer metrics.SubscriptionClosed(scope)

		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case <-notify:
				mu.Lock()
				ps := latest
				mu.Unlock()
				c.SSEvent("snapshot", gin.H{
					"week":  string(weekID),
					"plans": ps,
				})
				return true
			}
		})
	}
}
