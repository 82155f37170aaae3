package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/teamplanhq/weekplan/cmd/server/internal/export"
	"github.com/teamplanhq/weekplan/cmd/server/internal/plans"
	"github.com/teamplanhq/weekplan/cmd/server/internal/week"
)

// HandleExportWeek GET /api/v1/plans/:week/export?format=csv&department=IT
// 下载一周计划的 CSV 或 JSON
func HandleExportWeek(store *plans.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		weekID := week.Identifier(c.Param("week"))
		if !week.Valid(weekID) {
			badRequestResponse(c, "invalid week identifier")
			return
		}

		format := export.Format(c.DefaultQuery("format", string(export.FormatCSV)))
		if format != export.FormatCSV && format != export.FormatJSON {
			badRequestResponse(c, "format must be csv or json")
			return
		}

		opts := export.Options{
			WeekIdentifier: string(weekID),
			Department:     c.Query("department"),
			Format:         format,
		}

		data, contentType, err := export.Write(opts, store.QueryByWeek(string(weekID)))
		if err != nil {
			internalErrorResponse(c, err)
			return
		}

		filename := fmt.Sprintf("plans-%s.%s", weekID, format)
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(200, contentType, data)
	}
}
