package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamplanhq/weekplan/cmd/server/internal/week"
)

// weekInfo 一周的导航元数据
type weekInfo struct {
	Identifier string   `json:"identifier"`
	Label      string   `json:"label"`
	Dates      []string `json:"dates"` // 周一至周五，YYYY-MM-DD
	RangeStart string   `json:"rangeStart"`
	RangeEnd   string   `json:"rangeEnd"`
	Today      string   `json:"today,omitempty"` // 本周包含今天时为今天的日期
	Previous   string   `json:"previous"`
	Next       string   `json:"next"`
}

func buildWeekInfo(id week.Identifier) (*weekInfo, error) {
	dates, err := week.WeekdayDates(id)
	if err != nil {
		return nil, err
	}
	start, end, err := week.Range(id)
	if err != nil {
		return nil, err
	}
	prev, err := week.Previous(id)
	if err != nil {
		return nil, err
	}
	next, err := week.Next(id)
	if err != nil {
		return nil, err
	}

	info := &weekInfo{
		Identifier: string(id),
		Label:      week.FormatLabel(id),
		Dates:      make([]string, 0, len(dates)),
		RangeStart: week.FormatDate(start),
		RangeEnd:   week.FormatDate(end),
		Previous:   string(prev),
		Next:       string(next),
	}
	for _, d := range dates {
		info.Dates = append(info.Dates, week.FormatDate(d))
		if week.IsToday(d) {
			info.Today = week.FormatDate(d)
		}
	}
	return info, nil
}

// HandleCurrentWeek GET /api/v1/weeks/current
// 以固定时区的当前时间确定本周
func HandleCurrentWeek() gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := buildWeekInfo(week.Current())
		if err != nil {
			internalErrorResponse(c, err)
			return
		}
		successResponse(c, info)
	}
}

// HandleWeekInfo GET /api/v1/weeks/:week
func HandleWeekInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := week.Identifier(c.Param("week"))
		info, err := buildWeekInfo(id)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid week identifier")
			return
		}
		successResponse(c, info)
	}
}
