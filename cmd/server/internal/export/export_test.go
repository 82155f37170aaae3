package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamplanhq/weekplan/cmd/server/internal/models"
)

func samplePlans() []models.WeeklyPlan {
	return []models.WeeklyPlan{
		{
			WeekIdentifier: "2024-W45",
			UserID:         "u1",
			UserName:       "Ann",
			UserDepartment: "IT",
			Mode:           models.ModeDaily,
			DailyPlans: []models.DailyPlan{
				{Date: "2024-11-04", Tasks: []string{"fix build", "  "}, Blockers: []models.Blocker{
					{ID: "b1", Severity: models.SeverityHigh},
					{ID: "b2", Severity: models.SeverityLow, IsResolved: true},
				}},
				{Date: "2024-11-05", IsOffDay: true},
			},
		},
		{
			WeekIdentifier: "2024-W45",
			UserID:         "u2",
			UserName:       "Bob",
			UserDepartment: "QA",
			Mode:           models.ModeSummary,
			Summary:        &models.WeeklySummary{Achievements: "shipped", Challenges: "time", NextWeekPlans: "tests"},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	data, err := WriteCSV(Options{WeekIdentifier: "2024-W45", Format: FormatCSV}, samplePlans())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	// header + 2 daily rows + 1 summary row
	require.Len(t, records, 4)
	assert.Equal(t, csvHeader, records[0])

	day1 := records[1]
	assert.Equal(t, "Ann", day1[1])
	assert.Equal(t, "2024-11-04", day1[4])
	assert.Equal(t, "fix build", day1[6], "blank tasks dropped")
	assert.Equal(t, "2", day1[7])
	assert.Equal(t, "1", day1[8])

	offDay := records[2]
	assert.Equal(t, "true", offDay[5])

	summary := records[3]
	assert.Equal(t, "Bob", summary[1])
	assert.Contains(t, summary[9], "shipped")
}

func TestWriteCSV_DepartmentFilter(t *testing.T) {
	data, err := WriteCSV(Options{WeekIdentifier: "2024-W45", Department: "QA"}, samplePlans())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Bob", records[1][1])
}

func TestWriteJSON(t *testing.T) {
	data, err := WriteJSON(Options{WeekIdentifier: "2024-W45"}, samplePlans())
	require.NoError(t, err)

	var decoded struct {
		WeekIdentifier string              `json:"weekIdentifier"`
		Plans          []models.WeeklyPlan `json:"plans"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2024-W45", decoded.WeekIdentifier)
	assert.Len(t, decoded.Plans, 2)
}

func TestWrite_Dispatch(t *testing.T) {
	_, ct, err := Write(Options{Format: FormatCSV}, nil)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", ct)

	_, ct, err = Write(Options{Format: FormatJSON}, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json", ct)

	_, _, err = Write(Options{Format: "xml"}, nil)
	assert.Error(t, err)
}
