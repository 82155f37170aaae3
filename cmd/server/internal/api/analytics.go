package api

import (
	"io"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/teamplanhq/weekplan/cmd/server/internal/analytics"
	"github.com/teamplanhq/weekplan/cmd/server/internal/directory"
	"github.com/teamplanhq/weekplan/cmd/server/internal/models"
	"github.com/teamplanhq/weekplan/cmd/server/internal/plans"
	"github.com/teamplanhq/weekplan/cmd/server/internal/week"
	"github.com/teamplanhq/weekplan/pkg/metrics"
)

const (
	defaultTrendWeeks = 4
	maxTrendWeeks     = 26
)

// trendWeekRange 返回以 end 结尾的连续 count 周（含 end），按时间正序
func trendWeekRange(end week.Identifier, count int) ([]string, error) {
	weeks := make([]string, count)
	cur := end
	for i := count - 1; i >= 0; i-- {
		weeks[i] = string(cur)
		prev, err := week.Previous(cur)
		if err != nil {
			return nil, err
		}
		cur = prev
	}
	return weeks, nil
}

func parseTrendParams(c *gin.Context) (end week.Identifier, count int, ok bool) {
	end = week.Identifier(c.DefaultQuery("end", string(week.Current())))
	if !week.Valid(end) {
		badRequestResponse(c, "invalid week identifier")
		return "", 0, false
	}
	count, err := strconv.Atoi(c.DefaultQuery("weeks", strconv.Itoa(defaultTrendWeeks)))
	if err != nil || count < 1 || count > maxTrendWeeks {
		badRequestResponse(c, "weeks must be between 1 and "+strconv.Itoa(maxTrendWeeks))
		return "", 0, false
	}
	return end, count, true
}

// HandleWeekReport GET /api/v1/analytics/:week
// 周聚合报表：已知部门即使无计划也以零值出现
func HandleWeekReport(store *plans.Store, dir *directory.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		weekID := week.Identifier(c.Param("week"))
		if !week.Valid(weekID) {
			badRequestResponse(c, "invalid week identifier")
			return
		}
		report := analytics.AggregateWeek(string(weekID), store.QueryByWeek(string(weekID)), dir.DepartmentNames())
		successResponse(c, report)
	}
}

// HandleTrends GET /api/v1/analytics/trends?end=2024-W45&weeks=4
// 多周趋势，一次性计算返回
func HandleTrends(store *plans.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		end, count, ok := parseTrendParams(c)
		if !ok {
			return
		}
		weeks, err := trendWeekRange(end, count)
		if err != nil {
			internalErrorResponse(c, err)
			return
		}

		byWeek := make(map[string][]models.WeeklyPlan, len(weeks))
		for _, w := range weeks {
			byWeek[w] = store.QueryByWeek(w)
		}
		successResponse(c, analytics.ComputeTrends(weeks, byWeek))
	}
}

// HandleSubscribeTrends GET /api/v1/analytics/trends/subscribe?end=...&weeks=N
// SSE 趋势订阅：所有请求周都到齐后才推送第一份报表，之后任一周变化都重推
func HandleSubscribeTrends(store *plans.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		end, count, ok := parseTrendParams(c)
		if !ok {
			return
		}
		weeks, err := trendWeekRange(end, count)
		if err != nil {
			internalErrorResponse(c, err)
			return
		}

		var mu sync.Mutex
		var latest *analytics.MultiWeekReport
		notify := make(chan struct{}, 1)
		collector := analytics.NewTrendCollector(weeks, func(r *analytics.MultiWeekReport) {
			mu.Lock()
			latest = r
			mu.Unlock()
			select {
			case notify <- struct{}{}:
			default:
			}
		})

		unsubs := make([]plans.Unsubscribe, 0, len(weeks))
		for _, w := range weeks {
			w := w
			unsubs = append(unsubs, store.SubscribeWeek(w, func(ps []models.WeeklyPlan) {
				collector.Deliver(w, ps)
			}))
		}
		defer func() {
			for _, u := range unsubs {
				u()
			}
		}()

		metrics.SubscriptionOpened("trends")
		defer metrics.SubscriptionClosed("trends")

		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case <-notify:
				mu.Lock()
				r := latest
				mu.Unlock()
				c.SSEvent("trends", r)
				return true
			}
		})
	}
}
