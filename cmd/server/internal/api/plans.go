package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamplanhq/weekplan/cmd/server/internal/plans"
	"github.com/teamplanhq/weekplan/cmd/server/internal/users"
	"github.com/teamplanhq/weekplan/cmd/server/internal/week"
	"github.com/teamplanhq/weekplan/pkg/metrics"
)

// HandleListWeekPlans GET /api/v1/plans/:week
// 返回一周内全部成员的计划快照，按姓名排序
func HandleListWeekPlans(store *plans.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		weekID := week.Identifier(c.Param("week"))
		if !week.Valid(weekID) {
			badRequestResponse(c, "invalid week identifier")
			return
		}
		successResponse(c, gin.H{
			"week": string(weekID),
			"data": store.QueryByWeek(string(weekID)),
		})
	}
}

// HandleGetMyPlan GET /api/v1/plans/:week/me
func HandleGetMyPlan(store *plans.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		weekID := week.Identifier(c.Param("week"))
		if !week.Valid(weekID) {
			badRequestResponse(c, "invalid week identifier")
			return
		}
		plan, ok := store.Get(currentUserID(c), string(weekID))
		if !ok {
			notFoundResponse(c, "plan")
			return
		}
		successResponse(c, plan)
	}
}

// HandleGetUserPlan GET /api/v1/plans/:week/users/:userId
// 查看某个成员该周的计划
func HandleGetUserPlan(store *plans.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		weekID := week.Identifier(c.Param("week"))
		if !week.Valid(weekID) {
			badRequestResponse(c, "invalid week identifier")
			return
		}
		plan, ok := store.Get(c.Param("userId"), string(weekID))
		if !ok {
			notFoundResponse(c, "plan")
			return
		}
		successResponse(c, plan)
	}
}

// HandleUpsertPlan PUT /api/v1/plans/:week
// 整份覆盖当前用户该周的计划，最后写入者胜
func HandleUpsertPlan(svc *plans.Service, manager *users.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		weekID := week.Identifier(c.Param("week"))
		if !week.Valid(weekID) {
			badRequestResponse(c, "invalid week identifier")
			return
		}

		var form plans.Form
		if err := c.ShouldBindJSON(&form); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}

		u, ok := manager.Get(currentUserID(c))
		if !ok {
			notFoundResponse(c, "user")
			return
		}

		owner := plans.Owner{UserID: u.ID, Name: u.Name, Department: u.Department}
		plan, err := svc.Upsert(owner, string(weekID), form)
		if err != nil {
			metrics.RecordPlanWrite(string(form.Mode), "failed")
			badRequestResponse(c, err.Error())
			return
		}

		metrics.RecordPlanWrite(string(plan.Mode), "success")
		c.JSON(http.StatusOK, plan)
	}
}

// HandleListMyPlans GET /api/v1/me/plans
// 当前用户的全部历史计划，按周排序
func HandleListMyPlans(store *plans.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		successResponse(c, gin.H{"data": store.QueryByUser(currentUserID(c))})
	}
}
