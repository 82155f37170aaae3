package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config 统一配置结构
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Log      LogConfig
	Security SecurityConfig
	OIDC     OIDCConfig
	Uploads  UploadsConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env  string // dev, staging, production
	Port string
}

// DataConfig 数据目录配置，所有子目录挂在 DataDir 下
type DataConfig struct {
	DataDir      string
	PlansDir     string
	UsersDir     string
	AuditLogsDir string
	DirectoryDir string
	SeedFile     string // 部门种子 YAML，可为空
}

// LogConfig 日志配置
type LogConfig struct {
	Level string // debug, info, warn, error
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWTSecret          string
	CORSAllowedOrigins []string
}

// OIDCConfig 企业单点登录配置，IssuerURL 为空时禁用
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// UploadsConfig 上传对象存储配置
type UploadsConfig struct {
	Dir     string
	BaseURL string // 对外访问前缀，如 /uploads
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		Server: ServerConfig{
			Env:  getEnv("ENV", "dev"),
			Port: getEnv("PORT", "8000"),
		},
		Data: DataConfig{
			DataDir:      dataDir,
			PlansDir:     getEnv("PLANS_DIR", filepath.Join(dataDir, "plans")),
			UsersDir:     getEnv("USERS_DIR", filepath.Join(dataDir, "users")),
			AuditLogsDir: getEnv("AUDIT_LOGS_DIR", filepath.Join(dataDir, "audit_logs")),
			DirectoryDir: getEnv("DIRECTORY_DIR", filepath.Join(dataDir, "directory")),
			SeedFile:     getEnv("DEPARTMENT_SEED_FILE", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Security: SecurityConfig{
			JWTSecret:          getEnv("USER_JWT_SECRET", ""),
			CORSAllowedOrigins: parseStringList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		OIDC: OIDCConfig{
			IssuerURL:    getEnv("OIDC_ISSUER_URL", ""),
			ClientID:     getEnv("OIDC_CLIENT_ID", ""),
			ClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("OIDC_REDIRECT_URI", ""),
		},
		Uploads: UploadsConfig{
			Dir:     getEnv("UPLOADS_DIR", filepath.Join(dataDir, "uploads")),
			BaseURL: getEnv("UPLOADS_BASE_URL", "/uploads"),
		},
	}

	return cfg, nil
}

// ValidateConfig 验证配置的有效性
func ValidateConfig(cfg *Config) error {
	var errors []string

	// 1. JWT Secret 验证
	if cfg.Security.JWTSecret == "" {
		errors = append(errors, "USER_JWT_SECRET is required")
	} else if len(cfg.Security.JWTSecret) < 32 {
		errors = append(errors, "USER_JWT_SECRET must be at least 32 characters long")
	}

	// 2. 端口验证
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	// 3. 日志级别验证
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	// 4. 环境验证
	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	// 5. OIDC 配置要么全空要么齐全
	oidcSet := 0
	for _, v := range []string{cfg.OIDC.IssuerURL, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURI} {
		if v != "" {
			oidcSet++
		}
	}
	if oidcSet > 0 && oidcSet < 4 {
		errors = append(errors, "OIDC configuration is incomplete: OIDC_ISSUER_URL, OIDC_CLIENT_ID, OIDC_CLIENT_SECRET and OIDC_REDIRECT_URI must all be set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// EnsureDataDirs 创建缺失的数据目录
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.Data.PlansDir,
		cfg.Data.UsersDir,
		cfg.Data.AuditLogsDir,
		cfg.Data.DirectoryDir,
		cfg.Uploads.Dir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir %s: %w", dir, err)
		}
	}
	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment 判断是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "dev" || c.Server.Env == "development"
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Data Directories:
    - Plans: %s
    - Users: %s
    - Audit Logs: %s
    - Directory: %s
    - Uploads: %s
  Logging:
    - Level: %s
  Security:
    - JWT Secret: %s
    - CORS Origins: %v
  OIDC:
    - Issuer: %s
    - Client ID: %s`,
		c.Server.Env,
		c.Server.Port,
		c.Data.PlansDir,
		c.Data.UsersDir,
		c.Data.AuditLogsDir,
		c.Data.DirectoryDir,
		c.Uploads.Dir,
		c.Log.Level,
		maskSecret(c.Security.JWTSecret),
		c.Security.CORSAllowedOrigins,
		c.OIDC.IssuerURL,
		c.OIDC.ClientID,
	)
}

// 辅助函数

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseStringList 解析逗号分隔的字符串列表
func parseStringList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// maskSecret 对敏感信息进行脱敏
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}
