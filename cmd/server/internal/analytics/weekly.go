// Package analytics 将一周或多周的计划记录聚合为统计报告
// 纯计算，无 I/O，无副作用；对缺字段的脏记录采取宽容策略
package analytics

import (
	"math"
	"strings"

	"github.com/teamplanhq/weekplan/cmd/server/internal/models"
)

// ModeStats 按模式的计划数
type ModeStats struct {
	Daily   int `json:"daily"`
	Summary int `json:"summary"`
}

// SeverityStats 按严重度的阻塞项数（仅统计未解决项）
type SeverityStats struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// BlockerStats 阻塞项统计
type BlockerStats struct {
	Total      int           `json:"total"`
	Active     int           `json:"active"`
	Resolved   int           `json:"resolved"`
	BySeverity SeverityStats `json:"bySeverity"`
}

// OffDayStats 休假日统计
type OffDayStats struct {
	Total        int            `json:"total"`
	ByDepartment map[string]int `json:"byDepartment"`
}

// TaskStats 任务统计，仅计修剪后非空的任务
type TaskStats struct {
	TotalTasks      int     `json:"totalTasks"`
	PlansWithTasks  int     `json:"plansWithTasks"`
	AvgTasksPerPlan float64 `json:"avgTasksPerPlan"`
}

// WeeklyReport 单周聚合报告
type WeeklyReport struct {
	WeekIdentifier    string         `json:"weekIdentifier"`
	TotalPlans        int            `json:"totalPlans"`
	PlansByDepartment map[string]int `json:"plansByDepartment"`
	PlansByMode       ModeStats      `json:"plansByMode"`
	Blockers          BlockerStats   `json:"blockers"`
	OffDays           OffDayStats    `json:"offDays"`
	Tasks             TaskStats      `json:"tasks"`
}

// AggregateWeek 聚合一周的全部计划
// departments 为目录中已知的部门名，即使计数为零也必须出现在结果中；
// 计划上出现的未知部门名同样计入（反规范化引用可能已过期）
func AggregateWeek(weekID string, plans []models.WeeklyPlan, departments []string) *WeeklyReport {
	report := &WeeklyReport{
		WeekIdentifier:    weekID,
		TotalPlans:        len(plans),
		PlansByDepartment: map[string]int{},
		OffDays:           OffDayStats{ByDepartment: map[string]int{}},
	}

	for _, dept := range departments {
		report.PlansByDepartment[dept] = 0
		report.OffDays.ByDepartment[dept] = 0
	}

	for _, plan := range plans {
		report.PlansByDepartment[plan.UserDepartment]++

		if plan.Mode == models.ModeDaily {
			report.PlansByMode.Daily++
		} else {
			report.PlansByMode.Summary++
		}

		// 阻塞项/休假/任务仅来自 daily 模式的每日记录
		if plan.Mode != models.ModeDaily {
			continue
		}

		planTasks := 0
		for _, day := range plan.DailyPlans {
			if day.IsOffDay {
				report.OffDays.Total++
				report.OffDays.ByDepartment[plan.UserDepartment]++
			}

			for _, task := range day.Tasks {
				if strings.TrimSpace(task) != "" {
					planTasks++
				}
			}

			for _, b := range day.Blockers {
				report.Blockers.Total++
				if b.IsResolved {
					report.Blockers.Resolved++
					continue
				}
				report.Blockers.Active++
				switch b.Severity {
				case models.SeverityHigh:
					report.Blockers.BySeverity.High++
				case models.SeverityMedium:
					report.Blockers.BySeverity.Medium++
				case models.SeverityLow:
					report.Blockers.BySeverity.Low++
				}
			}
		}

		if planTasks > 0 {
			report.Tasks.TotalTasks += planTasks
			report.Tasks.PlansWithTasks++
		}
	}

	// 平均数除以有任务的计划数而非总数，无任务时为 0 避免除零
	if report.Tasks.PlansWithTasks > 0 {
		avg := float64(report.Tasks.TotalTasks) / float64(report.Tasks.PlansWithTasks)
		report.Tasks.AvgTasksPerPlan = math.Round(avg*10) / 10
	}

	return report
}
