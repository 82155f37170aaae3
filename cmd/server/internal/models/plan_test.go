package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ResolvedAtConsistency(t *testing.T) {
	now := time.Date(2024, 11, 6, 10, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	plan := &WeeklyPlan{
		Mode: ModeDaily,
		DailyPlans: []DailyPlan{
			{
				Date: "2024-11-04",
				Blockers: []Blocker{
					// 已解决但缺时间戳 -> 补 now
					{ID: "b1", Severity: SeverityHigh, IsResolved: true},
					// 未解决却带时间戳 -> 清空
					{ID: "b2", Severity: SeverityLow, IsResolved: false, ResolvedAt: &earlier},
				},
			},
		},
	}

	plan.Normalize(now)

	b1 := plan.DailyPlans[0].Blockers[0]
	require.NotNil(t, b1.ResolvedAt)
	assert.Equal(t, now, *b1.ResolvedAt)

	b2 := plan.DailyPlans[0].Blockers[1]
	assert.Nil(t, b2.ResolvedAt)
}

func TestNormalize_FillsMissingSlices(t *testing.T) {
	plan := &WeeklyPlan{Mode: ModeDaily, DailyPlans: []DailyPlan{{Date: "2024-11-04"}}}
	plan.Normalize(time.Now())

	assert.NotNil(t, plan.UpdateLogs)
	assert.NotNil(t, plan.DailyPlans[0].Tasks)
	assert.NotNil(t, plan.DailyPlans[0].Blockers)
}

func TestNonBlankTasks(t *testing.T) {
	day := DailyPlan{Tasks: []string{"write report", "  ", "", "\t", "review PR"}}
	assert.Equal(t, 2, day.NonBlankTasks())
}

func TestHighestActiveSeverity(t *testing.T) {
	plan := &WeeklyPlan{
		DailyPlans: []DailyPlan{
			{Blockers: []Blocker{
				{Severity: SeverityHigh, IsResolved: true}, // 已解决不计
				{Severity: SeverityLow, IsResolved: false},
			}},
			{Blockers: []Blocker{
				{Severity: SeverityMedium, IsResolved: false},
			}},
		},
	}
	assert.Equal(t, SeverityMedium, plan.HighestActiveSeverity())

	empty := &WeeklyPlan{}
	assert.Equal(t, Severity(""), empty.HighestActiveSeverity())
}

func TestValidSeverity(t *testing.T) {
	assert.True(t, ValidSeverity(SeverityLow))
	assert.True(t, ValidSeverity(SeverityHigh))
	assert.False(t, ValidSeverity("critical"))
}
