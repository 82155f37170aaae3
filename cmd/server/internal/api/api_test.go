package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamplanhq/weekplan/cmd/server/internal/audit"
	"github.com/teamplanhq/weekplan/cmd/server/internal/directory"
	"github.com/teamplanhq/weekplan/cmd/server/internal/middleware"
	"github.com/teamplanhq/weekplan/cmd/server/internal/models"
	"github.com/teamplanhq/weekplan/cmd/server/internal/plans"
	"github.com/teamplanhq/weekplan/cmd/server/internal/users"
	"github.com/teamplanhq/weekplan/pkg/logger"
)

type testEnv struct {
	router  *gin.Engine
	manager *users.Manager
	store   *plans.Store
	dir     *directory.Store
}

// newTestEnv 以临时目录搭建完整路由，布局与生产一致
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	_, err := logger.Init(logger.Config{Level: "debug", Environment: "test"})
	require.NoError(t, err)

	manager, err := users.NewManager(t.TempDir(), []byte(strings.Repeat("k", 32)))
	require.NoError(t, err)
	store, err := plans.NewStore(t.TempDir(), logger.L())
	require.NoError(t, err)
	dir, err := directory.NewStore(t.TempDir(), logger.L())
	require.NoError(t, err)
	_, err = dir.Seed(directory.DefaultSeedDepartments)
	require.NoError(t, err)

	svc := plans.NewService(store, logger.L())

	r := gin.New()
	r.POST("/api/v1/auth/signup", HandleSignUp(manager))
	r.POST("/api/v1/auth/login", HandleSignIn(manager))

	authed := r.Group("/api/v1", middleware.RequireAuth(manager))
	authed.GET("/me", HandleMe(manager))
	authed.PUT("/me/profile", HandleUpdateProfile(manager, svc, audit.Nop{}))
	authed.GET("/weeks/current", HandleCurrentWeek())
	authed.GET("/weeks/:week", HandleWeekInfo())
	authed.GET("/plans/:week", HandleListWeekPlans(store))
	authed.PUT("/plans/:week", HandleUpsertPlan(svc, manager))
	authed.GET("/plans/:week/me", HandleGetMyPlan(store))
	authed.GET("/plans/:week/export", HandleExportWeek(store))
	authed.GET("/analytics/:week", HandleWeekReport(store, dir))
	authed.GET("/analytics/trends", HandleTrends(store))
	authed.GET("/departments", HandleListDepartments(dir))
	authed.POST("/departments", HandleCreateDepartment(dir, audit.Nop{}))
	authed.DELETE("/departments/:id", HandleDeleteDepartment(dir, audit.Nop{}))
	authed.POST("/projects", HandleCreateProject(dir, audit.Nop{}))

	return &testEnv{router: r, manager: manager, store: store, dir: dir}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) signup(t *testing.T, email string) (token string, userID string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string     `json:"token"`
		User  users.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.User.ID
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	token, _ := env.signup(t, "alice@example.com")

	// 重复注册冲突
	w := env.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 错误密码
	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "alice@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 正确登录
	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusOK, w.Code)

	// me
	w = env.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me users.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Empty(t, me.PasswordHash)
}

func TestPlanLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.signup(t, "bob@example.com")

	// 先完善档案，计划会带上姓名/部门快照
	w := env.do(t, http.MethodPut, "/api/v1/me/profile", token, gin.H{
		"name": "Bob", "department": "IT", "language": "en",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	const weekID = "2024-W45"
	form := gin.H{
		"mode": "daily",
		"dailyPlans": []gin.H{
			{"date": "2024-11-04", "tasks": []string{"deploy", "review"}, "isOffDay": false, "blockers": []gin.H{
				{"id": "b1", "description": "waiting on infra", "severity": "high", "isResolved": false},
			}},
		},
	}

	w = env.do(t, http.MethodPut, "/api/v1/plans/"+weekID, token, form)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var plan models.WeeklyPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, models.PlanID(userID, weekID), plan.ID)
	assert.Equal(t, "Bob", plan.UserName)
	assert.Equal(t, "IT", plan.UserDepartment)

	// 非法周标识拒绝
	w = env.do(t, http.MethodPut, "/api/v1/plans/2024-45", token, form)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 周列表包含该计划
	w = env.do(t, http.MethodGet, "/api/v1/plans/"+weekID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []models.WeeklyPlan `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)

	// 自己的计划
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/plans/%s/me", weekID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 聚合报表
	w = env.do(t, http.MethodGet, "/api/v1/analytics/"+weekID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		TotalPlans int `json:"totalPlans"`
		Blockers   struct {
			Active     int            `json:"active"`
			BySeverity map[string]int `json:"bySeverity"`
		} `json:"blockers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.TotalPlans)
	assert.Equal(t, 1, report.Blockers.Active)
	assert.Equal(t, 1, report.Blockers.BySeverity["high"])

	// CSV 导出
	w = env.do(t, http.MethodGet, "/api/v1/plans/"+weekID+"/export?format=csv", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "plans-2024-W45.csv")
	assert.Contains(t, w.Body.String(), "Bob")

	// 趋势
	w = env.do(t, http.MethodGet, "/api/v1/analytics/trends?end="+weekID+"&weeks=4", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWeekInfo(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "dave@example.com")

	w := env.do(t, http.MethodGet, "/api/v1/weeks/2024-W45", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info struct {
		Label      string   `json:"label"`
		Dates      []string `json:"dates"`
		RangeStart string   `json:"rangeStart"`
		RangeEnd   string   `json:"rangeEnd"`
		Previous   string   `json:"previous"`
		Next       string   `json:"next"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "Week 45, 2024", info.Label)
	require.Len(t, info.Dates, 5)
	assert.Equal(t, "2024-11-04", info.Dates[0])
	assert.Equal(t, "2024-11-04", info.RangeStart)
	assert.Equal(t, "2024-11-10", info.RangeEnd)
	assert.Equal(t, "2024-W44", info.Previous)
	assert.Equal(t, "2024-W46", info.Next)

	w = env.do(t, http.MethodGet, "/api/v1/weeks/not-a-week", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDirectoryHandlers(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "carol@example.com")

	// 种子部门可见
	w := env.do(t, http.MethodGet, "/api/v1/departments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []directory.Department `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.NotEmpty(t, list.Data)

	// 创建与重名冲突
	w = env.do(t, http.MethodPost, "/api/v1/departments", token, gin.H{"name": "Platform"})
	require.Equal(t, http.StatusCreated, w.Code)
	var dept directory.Department
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dept))

	w = env.do(t, http.MethodPost, "/api/v1/departments", token, gin.H{"name": "platform"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 删除
	w = env.do(t, http.MethodDelete, "/api/v1/departments/"+dept.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/departments/"+dept.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 项目
	w = env.do(t, http.MethodPost, "/api/v1/projects", token, gin.H{"name": "Apollo"})
	assert.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/projects", token, gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
