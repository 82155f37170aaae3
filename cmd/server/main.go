package main

import (
	// Standard library
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	// External dependencies
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Internal packages
	"github.com/teamplanhq/weekplan/cmd/server/internal/api"
	"github.com/teamplanhq/weekplan/cmd/server/internal/audit"
	"github.com/teamplanhq/weekplan/cmd/server/internal/config"
	"github.com/teamplanhq/weekplan/cmd/server/internal/directory"
	"github.com/teamplanhq/weekplan/cmd/server/internal/idp"
	"github.com/teamplanhq/weekplan/cmd/server/internal/middleware"
	"github.com/teamplanhq/weekplan/cmd/server/internal/objectstore"
	"github.com/teamplanhq/weekplan/cmd/server/internal/plans"
	"github.com/teamplanhq/weekplan/cmd/server/internal/users"
	"github.com/teamplanhq/weekplan/pkg/logger"
)

// HealthCheckResponse represents the response from the health check endpoint
type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
	Env       string    `json:"env"`
}

// ReadinessCheckResponse represents the response from the readiness check endpoint
type ReadinessCheckResponse struct {
	Ready     bool             `json:"ready"`
	Checks    []ReadinessCheck `json:"checks"`
	Timestamp time.Time        `json:"timestamp"`
}

// ReadinessCheck represents a single readiness check
type ReadinessCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok" or "fail"
	Error  string `json:"error,omitempty"`
}

func main() {
	logInstance, err := logger.Init(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: os.Getenv("ENV"),
		WithSource:  !strings.EqualFold(os.Getenv("ENV"), "prod"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "web-server")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := config.EnsureDataDirs(cfg); err != nil {
		appLogger.Error("failed to prepare data directories", "error", err)
		os.Exit(1)
	}

	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)
	if cfg.IsDevelopment() {
		fmt.Println(cfg.PrintConfig())
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize user manager
	userManager, err := users.NewManager(cfg.Data.UsersDir, []byte(cfg.Security.JWTSecret))
	if err != nil {
		appLogger.Error("user manager init failed", "error", err)
		os.Exit(1)
	}

	// Initialize plan store and service
	planStore, err := plans.NewStore(cfg.Data.PlansDir, logInstance.With("component", "plan-store"))
	if err != nil {
		appLogger.Error("plan store init failed", "error", err)
		os.Exit(1)
	}
	planSvc := plans.NewService(planStore, logInstance.With("component", "plans"))
	appLogger.Info("plan store ready", "dir", cfg.Data.PlansDir)

	// Initialize department/project directory and seed on first run
	dirStore, err := directory.NewStore(cfg.Data.DirectoryDir, logInstance.With("component", "directory-store"))
	if err != nil {
		appLogger.Error("directory store init failed", "error", err)
		os.Exit(1)
	}
	seeds := directory.DefaultSeedDepartments
	if cfg.Data.SeedFile != "" {
		seeds, err = directory.LoadSeedFile(cfg.Data.SeedFile)
		if err != nil {
			appLogger.Error("failed to load department seed file", "path", cfg.Data.SeedFile, "error", err)
			os.Exit(1)
		}
	}
	created, err := dirStore.Seed(seeds)
	if err != nil {
		appLogger.Error("department seeding failed", "error", err)
		os.Exit(1)
	}
	if created > 0 {
		appLogger.Info("seeded departments", "count", created)
	}

	// Initialize upload object store
	objects, err := objectstore.NewStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	if err != nil {
		appLogger.Error("object store init failed", "error", err)
		os.Exit(1)
	}

	// Initialize audit logger
	auditLog := audit.NewFileLogger(cfg.Data.AuditLogsDir)
	appLogger.Info("audit logger ready", "dir", cfg.Data.AuditLogsDir)

	// Initialize OIDC authenticator when configured
	var authenticator *idp.Authenticator
	if oidcCfg := (idp.Config{
		IssuerURL:    cfg.OIDC.IssuerURL,
		ClientID:     cfg.OIDC.ClientID,
		ClientSecret: cfg.OIDC.ClientSecret,
		RedirectURI:  cfg.OIDC.RedirectURI,
	}); oidcCfg.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		authenticator, err = idp.NewAuthenticator(ctx, oidcCfg)
		cancel()
		if err != nil {
			appLogger.Error("oidc discovery failed", "issuer", cfg.OIDC.IssuerURL, "error", err)
			os.Exit(1)
		}
		appLogger.Info("federated login enabled", "issuer", cfg.OIDC.IssuerURL)
	} else {
		appLogger.Info("federated login disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(corsMiddleware(cfg.Security.CORSAllowedOrigins))

	// Health check endpoints (no authentication required)
	startTime := time.Now()
	r.GET("/health", healthCheckHandler(cfg, startTime))
	r.GET("/api/v1/health", healthCheckHandler(cfg, startTime))
	r.GET("/readiness", readinessCheckHandler(cfg))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Uploaded objects are public-read
	r.Static(cfg.Uploads.BaseURL, objects.Dir())

	// Authentication endpoints
	r.POST("/api/v1/auth/signup", api.HandleSignUp(userManager))
	r.POST("/api/v1/auth/login", api.HandleSignIn(userManager))
	r.GET("/api/v1/auth/oidc/login", api.HandleOIDCLogin(authenticator))
	r.GET("/api/v1/auth/oidc/callback", api.HandleOIDCCallback(authenticator, userManager))

	// Authenticated API
	authed := r.Group("/api/v1", middleware.RequireAuth(userManager))
	{
		authed.GET("/me", api.HandleMe(userManager))
		authed.PUT("/me/profile", api.HandleUpdateProfile(userManager, planSvc, auditLog))
		authed.POST("/me/avatar", api.HandleUploadAvatar(objects, userManager, auditLog))
		authed.GET("/me/plans", api.HandleListMyPlans(planStore))
		authed.GET("/users", api.HandleListUsers(userManager))

		authed.GET("/weeks/current", api.HandleCurrentWeek())
		authed.GET("/weeks/:week", api.HandleWeekInfo())

		authed.GET("/plans/:week", api.HandleListWeekPlans(planStore))
		authed.PUT("/plans/:week", api.HandleUpsertPlan(planSvc, userManager))
		authed.GET("/plans/:week/me", api.HandleGetMyPlan(planStore))
		authed.GET("/plans/:week/users/:userId", api.HandleGetUserPlan(planStore))
		authed.GET("/plans/:week/subscribe", api.HandleSubscribeWeek(planStore))
		authed.GET("/plans/:week/export", api.HandleExportWeek(planStore))

		authed.GET("/analytics/trends", api.HandleTrends(planStore))
		authed.GET("/analytics/trends/subscribe", api.HandleSubscribeTrends(planStore))
		authed.GET("/analytics/:week", api.HandleWeekReport(planStore, dirStore))

		authed.GET("/departments", api.HandleListDepartments(dirStore))
		authed.POST("/departments", api.HandleCreateDepartment(dirStore, auditLog))
		authed.PUT("/departments/:id", api.HandleUpdateDepartment(dirStore, auditLog))
		authed.PUT("/departments/:id/active", api.HandleSetDepartmentActive(dirStore, auditLog))
		authed.POST("/departments/:id/icon", api.HandleUploadDepartmentIcon(objects, dirStore, auditLog))
		authed.DELETE("/departments/:id", api.HandleDeleteDepartment(dirStore, auditLog))

		authed.GET("/projects", api.HandleListProjects(dirStore))
		authed.POST("/projects", api.HandleCreateProject(dirStore, auditLog))
		authed.PUT("/projects/:id", api.HandleUpdateProject(dirStore, auditLog))
		authed.PUT("/projects/:id/active", api.HandleSetProjectActive(dirStore, auditLog))
		authed.DELETE("/projects/:id", api.HandleDeleteProject(dirStore, auditLog))
	}

	// Create HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:    cfg.GetServerAddr(),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("server starting", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown; open SSE streams are cut after the timeout
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server shutdown complete")
}

// corsMiddleware 按配置的允许来源处理跨域与预检请求
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept-Language")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// healthCheckHandler returns the liveness probe handler
func healthCheckHandler(cfg *config.Config, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthCheckResponse{
			Status:    "healthy",
			Service:   "weekplan-server",
			Version:   "1.0.0",
			Uptime:    time.Since(startTime).String(),
			Timestamp: time.Now(),
			Env:       cfg.Server.Env,
		}
		c.JSON(http.StatusOK, response)
	}
}

// readinessCheckHandler returns the readiness probe handler
func readinessCheckHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := []ReadinessCheck{}
		allReady := true

		dirs := []struct {
			name string
			path string
		}{
			{"plans_dir", cfg.Data.PlansDir},
			{"users_dir", cfg.Data.UsersDir},
			{"directory_dir", cfg.Data.DirectoryDir},
			{"audit_logs_dir", cfg.Data.AuditLogsDir},
			{"uploads_dir", cfg.Uploads.Dir},
		}
		for _, d := range dirs {
			check := ReadinessCheck{Name: d.name, Status: "ok"}
			if !checkDataDirAccessible(d.path) {
				check.Status = "fail"
				check.Error = d.name + " not accessible"
				allReady = false
			}
			checks = append(checks, check)
		}

		response := ReadinessCheckResponse{
			Ready:     allReady,
			Checks:    checks,
			Timestamp: time.Now(),
		}
		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, response)
	}
}

// checkDataDirAccessible 目录存在且可访问
func checkDataDirAccessible(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil {
		return false
	}
	return info.IsDir()
}
