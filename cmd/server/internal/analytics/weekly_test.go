package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamplanhq/weekplan/cmd/server/internal/models"
)

var knownDepartments = []string{"IT", "Game", "Design", "QA", "Marketing", "Management", "Other"}

func dailyPlan(userID, dept string, days ...models.DailyPlan) models.WeeklyPlan {
	return models.WeeklyPlan{
		ID:             models.PlanID(userID, "2024-W45"),
		WeekIdentifier: "2024-W45",
		UserID:         userID,
		UserDepartment: dept,
		Mode:           models.ModeDaily,
		DailyPlans:     days,
	}
}

// TestAggregateWeek_Scenario 三个 daily 计划:
// 一个带 2 个未解决 high + 1 个已解决 low，其中两个计划各有一天休假
func TestAggregateWeek_Scenario(t *testing.T) {
	now := time.Now()
	plans := []models.WeeklyPlan{
		dailyPlan("u1", "IT",
			models.DailyPlan{Date: "2024-11-04", Tasks: []string{"fix build"}, Blockers: []models.Blocker{
				{ID: "b1", Severity: models.SeverityHigh, IsResolved: false, CreatedAt: now},
				{ID: "b2", Severity: models.SeverityHigh, IsResolved: false, CreatedAt: now},
				{ID: "b3", Severity: models.SeverityLow, IsResolved: true, CreatedAt: now, ResolvedAt: &now},
			}},
		),
		dailyPlan("u2", "QA",
			models.DailyPlan{Date: "2024-11-04", IsOffDay: true},
			models.DailyPlan{Date: "2024-11-05", Tasks: []string{"regression run"}},
		),
		dailyPlan("u3", "QA",
			models.DailyPlan{Date: "2024-11-06", IsOffDay: true},
		),
	}

	report := AggregateWeek("2024-W45", plans, knownDepartments)

	assert.Equal(t, 3, report.TotalPlans)
	assert.Equal(t, 3, report.PlansByMode.Daily)
	assert.Equal(t, 0, report.PlansByMode.Summary)

	assert.Equal(t, 3, report.Blockers.Total)
	assert.Equal(t, 2, report.Blockers.Active)
	assert.Equal(t, 1, report.Blockers.Resolved)
	assert.Equal(t, 2, report.Blockers.BySeverity.High)
	// 已解决的 low 不计入严重度分布
	assert.Equal(t, 0, report.Blockers.BySeverity.Low)

	assert.Equal(t, 2, report.OffDays.Total)
	assert.Equal(t, 2, report.OffDays.ByDepartment["QA"])

	assert.Equal(t, 1, report.PlansByDepartment["IT"])
	assert.Equal(t, 2, report.PlansByDepartment["QA"])
}

// TestAggregateWeek_DepartmentCompleteness 所有已知部门必须出现，计数可为零
func TestAggregateWeek_DepartmentCompleteness(t *testing.T) {
	report := AggregateWeek("2024-W45", nil, knownDepartments)

	for _, dept := range knownDepartments {
		_, ok := report.PlansByDepartment[dept]
		assert.True(t, ok, "plansByDepartment missing %s", dept)
		_, ok = report.OffDays.ByDepartment[dept]
		assert.True(t, ok, "offDays.byDepartment missing %s", dept)
	}
}

// TestAggregateWeek_UnknownDepartment 计划上过期的部门名也要计数
func TestAggregateWeek_UnknownDepartment(t *testing.T) {
	plans := []models.WeeklyPlan{dailyPlan("u1", "Dissolved Team")}
	report := AggregateWeek("2024-W45", plans, knownDepartments)
	assert.Equal(t, 1, report.PlansByDepartment["Dissolved Team"])
}

func TestAggregateWeek_TaskStats(t *testing.T) {
	plans := []models.WeeklyPlan{
		// 3 个非空任务（跨两天）
		dailyPlan("u1", "IT",
			models.DailyPlan{Date: "2024-11-04", Tasks: []string{"a", " ", "b"}},
			models.DailyPlan{Date: "2024-11-05", Tasks: []string{"c", ""}},
		),
		// 仅空白任务，不算有任务的计划
		dailyPlan("u2", "QA",
			models.DailyPlan{Date: "2024-11-04", Tasks: []string{"  ", "\t"}},
		),
		// 2 个任务
		dailyPlan("u3", "Game",
			models.DailyPlan{Date: "2024-11-04", Tasks: []string{"d", "e"}},
		),
	}

	report := AggregateWeek("2024-W45", plans, knownDepartments)

	assert.Equal(t, 5, report.Tasks.TotalTasks)
	assert.Equal(t, 2, report.Tasks.PlansWithTasks)
	// 5 / 2 = 2.5，除数是有任务的计划数而非总计划数
	assert.Equal(t, 2.5, report.Tasks.AvgTasksPerPlan)
}

func TestAggregateWeek_AvgZeroWhenNoTasks(t *testing.T) {
	plans := []models.WeeklyPlan{dailyPlan("u1", "IT", models.DailyPlan{Date: "2024-11-04"})}
	report := AggregateWeek("2024-W45", plans, knownDepartments)
	assert.Equal(t, 0.0, report.Tasks.AvgTasksPerPlan)
	assert.Equal(t, 0, report.Tasks.PlansWithTasks)
}

// TestAggregateWeek_SummaryModeExcluded summary 模式不贡献阻塞/休假/任务统计
func TestAggregateWeek_SummaryModeExcluded(t *testing.T) {
	plans := []models.WeeklyPlan{
		{
			UserID:         "u1",
			UserDepartment: "IT",
			Mode:           models.ModeSummary,
			Summary:        &models.WeeklySummary{Achievements: "shipped"},
			// summary 模式下残留的 dailyPlans 不应被统计
			DailyPlans: []models.DailyPlan{{Date: "2024-11-04", IsOffDay: true, Tasks: []string{"stale"}}},
		},
	}

	report := AggregateWeek("2024-W45", plans, knownDepartments)

	assert.Equal(t, 1, report.PlansByMode.Summary)
	assert.Equal(t, 0, report.Blockers.Total)
	assert.Equal(t, 0, report.OffDays.Total)
	assert.Equal(t, 0, report.Tasks.TotalTasks)
}

// TestAggregateWeek_Idempotent 同一输入重复聚合结果一致
func TestAggregateWeek_Idempotent(t *testing.T) {
	now := time.Now()
	plans := []models.WeeklyPlan{
		dailyPlan("u1", "IT", models.DailyPlan{
			Date:  "2024-11-04",
			Tasks: []string{"x"},
			Blockers: []models.Blocker{
				{ID: "b1", Severity: models.SeverityMedium, CreatedAt: now},
			},
		}),
	}

	first := AggregateWeek("2024-W45", plans, knownDepartments)
	second := AggregateWeek("2024-W45", plans, knownDepartments)
	assert.Equal(t, first, second)
}

// TestAggregateWeek_MalformedRecords 缺字段记录按零贡献处理，不 panic
func TestAggregateWeek_MalformedRecords(t *testing.T) {
	plans := []models.WeeklyPlan{
		{UserID: "u1", Mode: models.ModeDaily}, // 无 dailyPlans
		{UserID: "u2", Mode: models.ModeDaily, DailyPlans: []models.DailyPlan{
			{Date: "2024-11-04", Blockers: []models.Blocker{{ID: "b1", Severity: "unknown"}}},
		}},
	}

	var report *WeeklyReport
	require.NotPanics(t, func() {
		report = AggregateWeek("2024-W45", plans, knownDepartments)
	})
	assert.Equal(t, 2, report.TotalPlans)
	assert.Equal(t, 1, report.Blockers.Active)
	// 未知严重度不进任何分布桶
	assert.Equal(t, SeverityStats{}, report.Blockers.BySeverity)
}
