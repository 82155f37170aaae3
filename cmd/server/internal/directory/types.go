// Package directory 维护部门与项目目录: 简单的带启用开关的命名实体
// 删除不向已引用其名称/ID 的计划级联，反规范化引用允许过期
package directory

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("entity not found")
	ErrNameRequired  = errors.New("name required")
	ErrDuplicateName = errors.New("name already exists")
)

// Department 部门实体，含展示用的颜色与图标元数据
type Department struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	IsActive      bool      `json:"isActive"`
	ColorHex      string    `json:"colorHex,omitempty"`
	ColorHexLight string    `json:"colorHexLight,omitempty"`
	IconURL       string    `json:"iconURL,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Project 项目实体
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DepartmentUpdate 部门的部分更新，nil 字段保持不变
type DepartmentUpdate struct {
	Name          *string `json:"name"`
	ColorHex      *string `json:"colorHex"`
	ColorHexLight *string `json:"colorHexLight"`
	IconURL       *string `json:"iconURL"`
}

// ProjectUpdate 项目的部分更新
type ProjectUpdate struct {
	Name *string `json:"name"`
}
