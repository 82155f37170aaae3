// Package export 将一周的计划导出为 CSV 或 JSON
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teamplanhq/weekplan/cmd/server/internal/models"
)

// Format 导出格式
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Options 导出选项，Department 为空时不过滤
type Options struct {
	WeekIdentifier string
	Department     string
	Format         Format
}

// Filter 按部门过滤计划集
func Filter(plans []models.WeeklyPlan, department string) []models.WeeklyPlan {
	if department == "" {
		return plans
	}
	out := []models.WeeklyPlan{}
	for _, p := range plans {
		if p.UserDepartment == department {
			out = append(out, p)
		}
	}
	return out
}

var csvHeader = []string{"week", "user", "department", "mode", "date", "off_day", "tasks", "blockers", "active_blockers", "summary"}

// WriteCSV 展平导出: daily 模式每天一行，summary 模式一行
func WriteCSV(opts Options, plans []models.WeeklyPlan) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, plan := range Filter(plans, opts.Department) {
		if plan.Mode == models.ModeSummary {
			summary := ""
			if plan.Summary != nil {
				summary = strings.Join([]string{plan.Summary.Achievements, plan.Summary.Challenges, plan.Summary.NextWeekPlans}, " | ")
			}
			row := []string{plan.WeekIdentifier, plan.UserName, plan.UserDepartment, string(plan.Mode), "", "", "", "", "", summary}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
			continue
		}

		for _, day := range plan.DailyPlans {
			tasks := []string{}
			for _, task := range day.Tasks {
				if strings.TrimSpace(task) != "" {
					tasks = append(tasks, strings.TrimSpace(task))
				}
			}
			active := 0
			for _, b := range day.Blockers {
				if !b.IsResolved {
					active++
				}
			}
			row := []string{
				plan.WeekIdentifier,
				plan.UserName,
				plan.UserDepartment,
				string(plan.Mode),
				day.Date,
				fmt.Sprintf("%t", day.IsOffDay),
				strings.Join(tasks, "; "),
				fmt.Sprintf("%d", len(day.Blockers)),
				fmt.Sprintf("%d", active),
				"",
			}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteJSON 原结构导出
func WriteJSON(opts Options, plans []models.WeeklyPlan) ([]byte, error) {
	payload := struct {
		WeekIdentifier string              `json:"weekIdentifier"`
		Department     string              `json:"department,omitempty"`
		Plans          []models.WeeklyPlan `json:"plans"`
	}{
		WeekIdentifier: opts.WeekIdentifier,
		Department:     opts.Department,
		Plans:          Filter(plans, opts.Department),
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return b, nil
}

// Write 按选项分派格式
func Write(opts Options, plans []models.WeeklyPlan) (data []byte, contentType string, err error) {
	switch opts.Format {
	case FormatCSV:
		data, err = WriteCSV(opts, plans)
		return data, "text/csv", err
	case FormatJSON:
		data, err = WriteJSON(opts, plans)
		return data, "application/json", err
	default:
		return nil, "", fmt.Errorf("unsupported export format: %s", opts.Format)
	}
}
