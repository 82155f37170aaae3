// Package models 定义周计划的核心数据模型
package models

import (
	"strings"
	"time"
)

// PlanMode 周计划的填写模式
type PlanMode string

const (
	ModeDaily   PlanMode = "daily"
	ModeSummary PlanMode = "summary"
)

// Severity 阻塞项严重程度，按 low < medium < high 排序
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// severityRank 用于 "最高活跃严重度" 查询
var severityRank = map[Severity]int{
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

// Rank 返回严重度排序值，未知严重度为 0
func (s Severity) Rank() int {
	return severityRank[s]
}

// ValidSeverity 校验严重度取值
func ValidSeverity(s Severity) bool {
	_, ok := severityRank[s]
	return ok
}

// Blocker 记在某一天的阻塞项
// 不变量: IsResolved 为 true 时 ResolvedAt 必须有值，保存路径负责归一
type Blocker struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Severity    Severity   `json:"severity"`
	IsResolved  bool       `json:"isResolved"`
	CreatedAt   time.Time  `json:"createdAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}

// DailyPlan 一周中某个工作日 (周一至周五) 的计划
// Tasks 保序，允许空白与重复，展示层负责过滤
type DailyPlan struct {
	Date     string    `json:"date"` // YYYY-MM-DD
	Tasks    []string  `json:"tasks"`
	IsOffDay bool      `json:"isOffDay"`
	Project  string    `json:"project,omitempty"` // 项目 ID，可为空
	Blockers []Blocker `json:"blockers"`
}

// NonBlankTasks 返回去除空白后非空的任务数
func (d DailyPlan) NonBlankTasks() int {
	n := 0
	for _, task := range d.Tasks {
		if strings.TrimSpace(task) != "" {
			n++
		}
	}
	return n
}

// WeeklySummary 总结模式下的三段自由文本
type WeeklySummary struct {
	Achievements  string `json:"achievements"`
	Challenges    string `json:"challenges"`
	NextWeekPlans string `json:"nextWeekPlans"`
}

// UpdateLog 字段级变更记录，只追加，永不裁剪
type UpdateLog struct {
	Timestamp time.Time `json:"timestamp"`
	Field     string    `json:"field"`
	OldValue  *string   `json:"oldValue"`
	NewValue  *string   `json:"newValue"`
	UserID    string    `json:"userId"`
}

// WeeklyPlan 一个用户一周的计划，身份即 (userId, weekIdentifier)
// UserName/UserDepartment 是用户档案的反规范化快照，允许暂时过期
type WeeklyPlan struct {
	ID             string         `json:"id"` // "{userId}_{weekIdentifier}"
	WeekIdentifier string         `json:"weekIdentifier"`
	UserID         string         `json:"userId"`
	UserName       string         `json:"userName"`
	UserDepartment string         `json:"userDepartment"`
	Mode           PlanMode       `json:"mode"`
	DailyPlans     []DailyPlan    `json:"dailyPlans"`
	Summary        *WeeklySummary `json:"summary"`
	UpdateLogs     []UpdateLog    `json:"updateLogs"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// PlanID 拼装计划文档 ID
func PlanID(userID, weekIdentifier string) string {
	return userID + "_" + weekIdentifier
}

// Normalize 保存前归一化:
// ResolvedAt 与 IsResolved 保持一致（已解决补时间戳，未解决清空），
// 缺失的切片补为空切片，避免单条脏记录影响整周视图
func (p *WeeklyPlan) Normalize(now time.Time) {
	if p.DailyPlans == nil {
		p.DailyPlans = []DailyPlan{}
	}
	if p.UpdateLogs == nil {
		p.UpdateLogs = []UpdateLog{}
	}
	for i := range p.DailyPlans {
		day := &p.DailyPlans[i]
		if day.Tasks == nil {
			day.Tasks = []string{}
		}
		if day.Blockers == nil {
			day.Blockers = []Blocker{}
		}
		for j := range day.Blockers {
			b := &day.Blockers[j]
			if b.IsResolved && b.ResolvedAt == nil {
				ts := now
				b.ResolvedAt = &ts
			}
			if !b.IsResolved {
				b.ResolvedAt = nil
			}
		}
	}
}

// HighestActiveSeverity 返回所有未解决阻塞项中的最高严重度，无则返回空串
func (p *WeeklyPlan) HighestActiveSeverity() Severity {
	var highest Severity
	for _, day := range p.DailyPlans {
		for _, b := range day.Blockers {
			if b.IsResolved {
				continue
			}
			if b.Severity.Rank() > highest.Rank() {
				highest = b.Severity
			}
		}
	}
	return highest
}
