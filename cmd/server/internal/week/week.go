// Package week 提供 ISO 8601 周标识的解析、导航与日期换算
// 周标识格式: "2024-W45"，全系统固定使用曼谷时区计算周边界
package week

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeZoneName 全系统统一时区，避免浏览器本地时钟与存储记录的日界偏移
const TimeZoneName = "Asia/Bangkok"

var location = mustLoadLocation()

func mustLoadLocation() *time.Location {
	loc, err := time.LoadLocation(TimeZoneName)
	if err != nil {
		panic(fmt.Sprintf("load location %s: %v", TimeZoneName, err))
	}
	return loc
}

// Location 返回系统时区
func Location() *time.Location {
	return location
}

// Identifier 表示一个 ISO 周，如 "2024-W45"
type Identifier string

// Make 由年份与周号构造周标识
func Make(year, weekNum int) Identifier {
	return Identifier(fmt.Sprintf("%d-W%02d", year, weekNum))
}

// Parse 解析周标识
// 输入格式: "2024-W45"
// 返回: year, week, error
func Parse(id Identifier) (year int, weekNum int, err error) {
	parts := strings.Split(string(id), "-W")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid week identifier: %s (expected YYYY-Www)", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in week identifier: %s", parts[0])
	}

	weekNum, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid week in week identifier: %s", parts[1])
	}

	if weekNum < 1 || weekNum > 53 {
		return 0, 0, fmt.Errorf("week number out of range: %d (expected 1-53)", weekNum)
	}

	return year, weekNum, nil
}

// Valid 校验周标识格式
func Valid(id Identifier) bool {
	_, _, err := Parse(id)
	return err == nil
}

// FromTime 计算时刻 t 所在的 ISO 周（按系统时区投影）
func FromTime(t time.Time) Identifier {
	year, weekNum := t.In(location).ISOWeek()
	return Make(year, weekNum)
}

// Current 获取当前周标识
func Current() Identifier {
	return FromTime(time.Now())
}

// Monday 返回该周周一的日期（系统时区 00:00）
// 算法: 1月4日必在 ISO 第一周，回退到该周周一后按周数偏移
func Monday(id Identifier) (time.Time, error) {
	year, weekNum, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}

	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, location)

	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday is 0, convert to 7 for calculation
	}
	firstMonday := jan4.AddDate(0, 0, -(weekday - 1))

	return firstMonday.AddDate(0, 0, (weekNum-1)*7), nil
}

// WeekdayDates 返回该周周一至周五的 5 个日期
func WeekdayDates(id Identifier) ([]time.Time, error) {
	monday, err := Monday(id)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 5)
	for i := 0; i < 5; i++ {
		dates[i] = monday.AddDate(0, 0, i)
	}
	return dates, nil
}

// Range 返回该周周一与周日的日期
func Range(id Identifier) (start, end time.Time, err error) {
	start, err = Monday(id)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 6), nil
}

// Previous 返回上一周的标识
// 沿用固定 52 周回卷策略: 第 0 周 -> 前一年第 52 周
// 已知偏差: 53 个 ISO 周的年份（如 2020）跨年导航会跳过第 53 周
func Previous(id Identifier) (Identifier, error) {
	year, weekNum, err := Parse(id)
	if err != nil {
		return "", err
	}
	if weekNum-1 < 1 {
		return Make(year-1, 52), nil
	}
	return Make(year, weekNum-1), nil
}

// Next 返回下一周的标识（固定 52 周回卷: 第 53 周 -> 次年第 1 周）
func Next(id Identifier) (Identifier, error) {
	year, weekNum, err := Parse(id)
	if err != nil {
		return "", err
	}
	if weekNum+1 > 52 {
		return Make(year+1, 1), nil
	}
	return Make(year, weekNum+1), nil
}

// FormatLabel 格式化为展示文本
// 示例: "2024-W45" => "Week 45, 2024"
func FormatLabel(id Identifier) string {
	year, weekNum, err := Parse(id)
	if err != nil {
		return string(id)
	}
	return fmt.Sprintf("Week %d, %d", weekNum, year)
}

// FormatDate 按存储格式输出日期 (YYYY-MM-DD)
func FormatDate(t time.Time) string {
	return t.In(location).Format("2006-01-02")
}

// IsToday 判断日期是否为系统时区的今天
func IsToday(t time.Time) bool {
	return FormatDate(t) == FormatDate(time.Now())
}
