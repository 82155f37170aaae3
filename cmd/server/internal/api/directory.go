package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamplanhq/weekplan/cmd/server/internal/audit"
	"github.com/teamplanhq/weekplan/cmd/server/internal/directory"
)

// directoryError 把目录存储的 sentinel error 映射为 HTTP 状态
func directoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, directory.ErrNotFound):
		notFoundResponse(c, "entity")
	case errors.Is(err, directory.ErrNameRequired):
		badRequestResponse(c, "name is required")
	case errors.Is(err, directory.ErrDuplicateName):
		errorResponse(c, http.StatusConflict, "name already exists")
	default:
		internalErrorResponse(c, err)
	}
}

// HandleListDepartments GET /api/v1/departments?all=1
// 默认只返回启用中的部门
func HandleListDepartments(store *directory.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		activeOnly := c.Query("all") != "1"
		successResponse(c, gin.H{"data": store.ListDepartments(activeOnly)})
	}
}

// HandleCreateDepartment POST /api/v1/departments
func HandleCreateDepartment(store *directory.Store, auditLog audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name          string `json:"name"`
			ColorHex      string `json:"colorHex"`
			ColorHexLight string `json:"colorHexLight"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}

		dept, err := store.CreateDepartment(req.Name, req.ColorHex, req.ColorHexLight)
		if err != nil {
			directoryError(c, err)
			return
		}

		_ = auditLog.LogAction(currentUserID(c), audit.ActionCreateDepartment, dept.ID, nil, dept, "")
		c.JSON(http.StatusCreated, dept)
	}
}

// HandleUpdateDepartment PUT /api/v1/departments/:id
func HandleUpdateDepartment(store *directory.Store, auditLog audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var upd directory.DepartmentUpdate
		if err := c.ShouldBindJSON(&upd); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}

		before, err := store.GetDepartment(id)
		if err != nil {
			directoryError(c, err)
			return
		}

		dept, err := store.UpdateDepartment(id, upd)
		if err != nil {
			directoryError(c, err)
			return
		}

		_ = auditLog.LogAction(currentUserID(c), audit.ActionUpdateDepartment, id, before, dept, "")
		successResponse(c, dept)
	}
}

// HandleSetDepartmentActive PUT /api/v1/departments/:id/active
// 停用是软删除：部门从新计划的选项中消失，历史计划不受影响
func HandleSetDepartmentActive(store *directory.Store, auditLog audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var req struct {
			IsActive *bool `json:"isActive"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
			badRequestResponse(c, "isActive is required")
			return
		}

		dept, err := store.SetDepartmentActive(id, *req.IsActive)
		if err != nil {
			directoryError(c, err)
			return
		}

		_ = auditLog.LogActionSimple(currentUserID(c), audit.ActionToggleDepartment, id, dept.Name)
		successResponse(c, dept)
	}
}

// HandleDeleteDepartment DELETE /api/v1/departments/:id
// 硬删除不级联：引用该部门名的计划保留过期快照
func HandleDeleteDepartment(store *directory.Store, auditLog audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		before, err := store.GetDepartment(id)
		if err != nil {
			directoryError(c, err)
			return
		}
		if err := store.DeleteDepartment(id); err != nil {
			directoryError(c, err)
			return
		}

		_ = auditLog.LogAction(currentUserID(c), audit.ActionDeleteDepartment, id, before, nil, "")
		c.Status(http.StatusNoContent)
	}
}

// HandleListProjects GET /api/v1/projects?all=1
func HandleListProjects(store *directory.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		activeOnly := c.Query("all") != "1"
		successResponse(c, gin.H{"data": store.ListProjects(activeOnly)})
	}
}

// HandleCreateProject POST /api/v1/projects
func HandleCreateProject(store *directory.Store, auditLog audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}

		proj, err := store.CreateProject(req.Name)
		if err != nil {
			directoryError(c, err)
			return
		}

		_ = auditLog.LogAction(currentUserID(c), audit.ActionCreateProject, proj.ID, nil, proj, "")
		c.JSON(http.StatusCreated, proj)
	}
}

// HandleUpdateProject PUT /api/v1/projects/:id
func HandleUpdateProject(store *directory.Store, auditLog audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var upd directory.ProjectUpdate
		if err := c.ShouldBindJSON(&upd); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}

		before, err := store.GetProject(id)
		if err != nil {
			directoryError(c, err)
			return
		}

		proj, err := store.UpdateProject(id, upd)
		if err != nil {
			directoryError(c, err)
			return
		}

		_ = auditLog.LogAction(currentUserID(c), audit.ActionUpdateProject, id, before, proj, "")
		successResponse(c, proj)
	}
}

// HandleSetProjectActive PUT /api/v1/projects/:id/active
func HandleSetProjectActive(store *directory.Store, auditLog audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var req struct {
			IsActive *bool `json:"isActive"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
			badRequestResponse(c, "isActive is required")
			return
		}

		proj, err := store.SetProjectActive(id, *req.IsActive)
		if err != nil {
			directoryError(c, err)
			return
		}

		_ = auditLog.LogActionSimple(currentUserID(c), audit.ActionToggleProject, id, proj.Name)
		successResponse(c, proj)
	}
}

// HandleDeleteProject DELETE /api/v1/projects/:id
func HandleDeleteProject(store *directory.Store, auditLog audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		before, err := store.GetProject(id)
		if err != nil {
			directoryError(c, err)
			return
		}
		if err := store.DeleteProject(id); err != nil {
			directoryError(c, err)
			return
		}

		_ = auditLog.LogAction(currentUserID(c), audit.ActionDeleteProject, id, before, nil, "")
		c.Status(http.StatusNoContent)
	}
}
