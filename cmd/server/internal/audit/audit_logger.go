// Package audit 记录目录与档案变更的审计日志
// 系统没有角色模型，任何登录用户都能改全局目录数据，审计让操作至少可追溯
package audit

import (
	"encoding/json"
	"log"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Action 审计操作类型
type Action string

const (
	ActionCreateDepartment Action = "create_department"
	ActionUpdateDepartment Action = "update_department"
	ActionToggleDepartment Action = "toggle_department"
	ActionDeleteDepartment Action = "delete_department"
	ActionCreateProject    Action = "create_project"
	ActionUpdateProject    Action = "update_project"
	ActionToggleProject    Action = "toggle_project"
	ActionDeleteProject    Action = "delete_project"
	ActionUpdateProfile    Action = "update_profile"
	ActionUploadObject     Action = "upload_object"
)

// Entry 审计日志条目
type Entry struct {
	Timestamp  time.Time   `json:"timestamp"`
	Operator   string      `json:"operator"`          // 操作者用户 ID
	Action     Action      `json:"action"`            // 操作类型
	ResourceID string      `json:"resource_id"`       // 资源标识
	Before     interface{} `json:"before,omitempty"`  // 操作前状态
	After      interface{} `json:"after,omitempty"`   // 操作后状态
	Details    string      `json:"details,omitempty"` // 额外详情
}

// Logger 审计日志记录器接口
type Logger interface {
	// LogAction 记录审计日志
	LogAction(operator string, action Action, resourceID string, before, after interface{}, details string) error

	// LogActionSimple 记录简单审计日志 (不包含 before/after)
	LogActionSimple(operator string, action Action, resourceID string, details string) error
}

// FileLogger 基于文件的实现，lumberjack 负责按大小/时间轮转
type FileLogger struct {
	mu     sync.Mutex
	logger *log.Logger
	now    func() time.Time
}

// NewFileLogger 创建审计日志记录器，日志写入 baseDir/audit.jsonl
func NewFileLogger(baseDir string) *FileLogger {
	writer := &lumberjack.Logger{
		Filename:   filepath.Join(baseDir, "audit.jsonl"),
		MaxSize:    50, // MB
		MaxBackups: 10,
		MaxAge:     90, // days
		Compress:   true,
	}
	return &FileLogger{
		logger: log.New(writer, "", 0), // 时间戳在条目内，不加前缀
		now:    time.Now,
	}
}

// LogAction 记录审计日志为单行 JSON
func (f *FileLogger) LogAction(operator string, action Action, resourceID string, before, after interface{}, details string) error {
	entry := Entry{
		Timestamp:  f.now().UTC(),
		Operator:   operator,
		Action:     action,
		ResourceID: resourceID,
		Before:     before,
		After:      after,
		Details:    details,
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.logger.Println(string(b))
	return nil
}

// LogActionSimple 记录简单审计日志
func (f *FileLogger) LogActionSimple(operator string, action Action, resourceID string, details string) error {
	return f.LogAction(operator, action, resourceID, nil, nil, details)
}

// Nop 空实现，测试与审计关闭场景使用
type Nop struct{}

func (Nop) LogAction(string, Action, string, interface{}, interface{}, string) error {
	return nil
}

func (Nop) LogActionSimple(string, Action, string, string) error {
	return nil
}
