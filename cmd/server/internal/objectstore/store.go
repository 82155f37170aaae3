// Package objectstore 提供头像与部门图标等二进制对象的本地盘存储
// 上传者负责在调用前完成大小与类型校验，这里再做一次兜底检查
package objectstore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// 上传限制: 头像 ≤5MB 图片，图标 ≤1MB SVG
const (
	MaxAvatarBytes = 5 << 20
	MaxIconBytes   = 1 << 20
)

var (
	ErrTooLarge       = errors.New("object too large")
	ErrBadContentType = errors.New("content type not allowed")
	ErrBadPath        = errors.New("invalid object path")
)

var avatarContentTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// Store 本地盘对象存储，对象以相对路径寻址并通过 baseURL 对外提供
type Store struct {
	dir     string
	baseURL string // 如 "/uploads"
}

// NewStore 打开存储目录
func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure uploads dir: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir 存储根目录（静态文件服务挂载用）
func (s *Store) Dir() string {
	return s.dir
}

// cleanPath 拒绝越出存储根目录的路径
func (s *Store) cleanPath(objectPath string) (string, error) {
	cleaned := path.Clean("/" + objectPath)
	if strings.Contains(cleaned, "..") {
		return "", ErrBadPath
	}
	return filepath.Join(s.dir, filepath.FromSlash(cleaned)), nil
}

// Put 写入对象并返回对外 URL
func (s *Store) Put(objectPath string, data []byte) (string, error) {
	full, err := s.cleanPath(objectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("ensure object dir: %w", err)
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return "", fmt.Errorf("rename object: %w", err)
	}
	return s.baseURL + "/" + strings.TrimPrefix(path.Clean("/"+objectPath), "/"), nil
}

// Delete 删除对象，不存在时视为成功
func (s *Store) Delete(objectPath string) error {
	full, err := s.cleanPath(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// PutAvatar 校验并保存用户头像，返回 URL
func (s *Store) PutAvatar(userID, contentType string, data []byte) (string, error) {
	if len(data) > MaxAvatarBytes {
		return "", ErrTooLarge
	}
	ext, ok := avatarContentTypes[contentType]
	if !ok {
		return "", ErrBadContentType
	}
	return s.Put("avatars/"+userID+ext, data)
}

// PutDepartmentIcon 校验并保存部门 SVG 图标，返回 URL
func (s *Store) PutDepartmentIcon(departmentID, contentType string, data []byte) (string, error) {
	if len(data) > MaxIconBytes {
		return "", ErrTooLarge
	}
	if contentType != "image/svg+xml" {
		return "", ErrBadContentType
	}
	return s.Put("departments/"+departmentID+"/icon.svg", data)
}
