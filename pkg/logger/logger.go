package logger

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config 定义日志初始化配置
// Level 支持 debug/info/warn/error，Environment 支持 prod/dev 等
// WithSource 控制是否记录源码位置
// 未提供 level 时默认 info；prod 环境输出 JSON，其余输出文本
type Config struct {
	Level       string
	Environment string
	WithSource  bool
}

var (
	global *slog.Logger
	once   sync.Once
)

func levelFromString(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("invalid log level: " + level)
	}
}

// New 根据配置创建新的 slog.Logger，不设置全局实例
func New(cfg Config) (*slog.Logger, error) {
	lvl, err := levelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl, AddSource: cfg.WithSource}
	var handler slog.Handler
	if strings.ToLower(cfg.Environment) == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	}

	return slog.New(handler), nil
}

// Init 初始化全局日志实例，重复调用将返回首次创建的 logger
func Init(cfg Config) (*slog.Logger, error) {
	var initErr error
	once.Do(func() {
		global, initErr = New(cfg)
	})
	return global, initErr
}

// L 返回已初始化的全局 logger，未初始化时 panic
func L() *slog.Logger {
	if global == nil {
		panic("logger.Init must be called before logger.L")
	}
	return global
}

// LogStoreWrite 记录计划/目录存储写入事件的结构化日志
// kind: plan/directory/user
// action: create/update/save
// id: 记录标识
// err: 写入错误（可为 nil）
func LogStoreWrite(logger *slog.Logger, kind, action, id string, err error) {
	attrs := []slog.Attr{
		slog.String("kind", kind),
		slog.String("action", action),
		slog.String("id", id),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		logger.LogAttrs(nil, slog.LevelError, "store write failed", attrs...)
	} else {
		logger.LogAttrs(nil, slog.LevelDebug, "store write", attrs...)
	}
}
