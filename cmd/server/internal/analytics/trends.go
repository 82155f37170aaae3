package analytics

import (
	"sync"

	"github.com/teamplanhq/weekplan/cmd/server/internal/models"
)

// BlockerTrendPoint 某周的阻塞项趋势点
type BlockerTrendPoint struct {
	Week     string `json:"week"`
	Total    int    `json:"total"`
	Active   int    `json:"active"`
	Resolved int    `json:"resolved"`
}

// PlanCountPoint 某周的计划提交数
type PlanCountPoint struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}

// MultiWeekReport 多周趋势，两条序列按周对齐
type MultiWeekReport struct {
	Weeks           []string            `json:"weeks"`
	BlockerTrends   []BlockerTrendPoint `json:"blockerTrends"`
	PlanCountTrends []PlanCountPoint    `json:"planCountTrends"`
}

// ComputeTrends 对每周计划集计算趋势序列，byWeek 缺失的周按空集处理
func ComputeTrends(weeks []string, byWeek map[string][]models.WeeklyPlan) *MultiWeekReport {
	report := &MultiWeekReport{
		Weeks:           weeks,
		BlockerTrends:   make([]BlockerTrendPoint, 0, len(weeks)),
		PlanCountTrends: make([]PlanCountPoint, 0, len(weeks)),
	}

	for _, w := range weeks {
		plans := byWeek[w]
		point := BlockerTrendPoint{Week: w}
		for _, plan := range plans {
			if plan.Mode != models.ModeDaily {
				continue
			}
			for _, day := range plan.DailyPlans {
				for _, b := range day.Blockers {
					point.Total++
					if b.IsResolved {
						point.Resolved++
					} else {
						point.Active++
					}
				}
			}
		}
		report.BlockerTrends = append(report.BlockerTrends, point)
		report.PlanCountTrends = append(report.PlanCountTrends, PlanCountPoint{Week: w, Count: len(plans)})
	}

	return report
}

// TrendCollector 收集多周订阅的快照投递，凑齐全部请求周后才产出趋势
// 避免坐标轴覆盖不一致的半成品图表；任一周的投递永久缺席则永不产出
type TrendCollector struct {
	mu     sync.Mutex
	weeks  []string
	byWeek map[string][]models.WeeklyPlan
	emit   func(*MultiWeekReport)
}

// NewTrendCollector 创建收集器，emit 在每次凑齐全部周数据后被调用
// 重复的周标识去重保序，凑齐判定按唯一周计数
func NewTrendCollector(weeks []string, emit func(*MultiWeekReport)) *TrendCollector {
	unique := make([]string, 0, len(weeks))
	seen := map[string]bool{}
	for _, w := range weeks {
		if seen[w] {
			continue
		}
		seen[w] = true
		unique = append(unique, w)
	}
	return &TrendCollector{
		weeks:  unique,
		byWeek: map[string][]models.WeeklyPlan{},
		emit:   emit,
	}
}

// Deliver 接收某一周的全量快照；不在请求集中的周被丢弃
func (tc *TrendCollector) Deliver(weekID string, plans []models.WeeklyPlan) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	requested := false
	for _, w := range tc.weeks {
		if w == weekID {
			requested = true
			break
		}
	}
	if !requested {
		return
	}

	tc.byWeek[weekID] = append([]models.WeeklyPlan(nil), plans...)

	if len(tc.byWeek) < len(tc.weeks) {
		return
	}
	tc.emit(ComputeTrends(tc.weeks, tc.byWeek))
}

// Complete 返回是否已收到全部请求周的数据
func (tc *TrendCollector) Complete() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.byWeek) == len(tc.weeks)
}
