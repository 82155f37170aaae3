// Package users 管理用户账号、档案与会话 token
// 简易文件存储 users.json，密码使用 bcrypt 哈希
package users

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL 会话 token 有效期
const TokenTTL = 7 * 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already registered")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
)

// User 数据模型
// PasswordHash 为 bcrypt；联合登录账号无密码，Subject 记录 OIDC issuer subject
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Subject      string    `json:"oidc_subject,omitempty"`
	Name         string    `json:"name"`
	Department   string    `json:"department"`
	Language     string    `json:"language"` // en | th
	Projects     []string  `json:"projects"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile 档案更新载荷
type Profile struct {
	Name       string   `json:"name"`
	Department string   `json:"department"`
	Language   string   `json:"language"`
	Projects   []string `json:"projects"`
	AvatarURL  string   `json:"avatarURL"`
}

// Claims 自定义 JWT claims
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Manager 管理用户及 JWT
type Manager struct {
	mu        sync.RWMutex
	byID      map[string]*User
	secretKey []byte
	storePath string
	now       func() time.Time
}

// NewManager 创建管理器，secret 用于 JWT 签名
func NewManager(storeDir string, secret []byte) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("secret key required")
	}
	m := &Manager{
		byID:      map[string]*User{},
		secretKey: secret,
		storePath: filepath.Join(storeDir, "users.json"),
		now:       time.Now,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// load 从文件读取
func (m *Manager) load() error {
	b, err := os.ReadFile(m.storePath)
	if err != nil {
		return nil // first run
	}
	var arr []*User
	if err := json.Unmarshal(b, &arr); err != nil {
		return fmt.Errorf("unmarshal users: %w", err)
	}
	for _, u := range arr {
		m.byID[u.ID] = u
	}
	return nil
}

// save 写入文件（全量），调用方需持有写锁
func (m *Manager) save() error {
	arr := make([]*User, 0, len(m.byID))
	for _, u := range m.byID {
		arr = append(arr, u)
	}
	b, err := json.MarshalIndent(arr, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.storePath), 0o755); err != nil {
		return err
	}
	tmp := m.storePath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, m.storePath)
}

func (m *Manager) findByEmailLocked(email string) *User {
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

// sanitize 复制并隐藏敏感字段
func sanitize(u *User) *User {
	cpy := *u
	cpy.PasswordHash = ""
	if cpy.Projects == nil {
		cpy.Projects = []string{}
	}
	return &cpy
}

// SignUp 注册邮箱密码账号，返回新用户
func (m *Manager) SignUp(email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("valid email required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findByEmailLocked(email) != nil {
		return nil, ErrEmailExists
	}

	now := m.now()
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Language:     "en",
		Projects:     []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.byID[u.ID] = u
	if err := m.save(); err != nil {
		delete(m.byID, u.ID)
		return nil, err
	}
	return sanitize(u), nil
}

// SignIn 验证邮箱密码
func (m *Manager) SignIn(email, password string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u := m.findByEmailLocked(strings.TrimSpace(strings.ToLower(email)))
	if u == nil || u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return sanitize(u), nil
}

// EnsureFederated 按 OIDC (issuer, subject) 查找或自动开通账号
// language 为新账号的初始语言偏好（来自 Accept-Language 协商）
func (m *Manager) EnsureFederated(subject, email, name, language string) (*User, error) {
	if subject == "" {
		return nil, errors.New("subject required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Subject == subject {
			return sanitize(u), nil
		}
	}

	now := m.now()
	u := &User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(email),
		Subject:   subject,
		Name:      name,
		Language:  language,
		Projects:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if u.Language == "" {
		u.Language = "en"
	}
	m.byID[u.ID] = u
	if err := m.save(); err != nil {
		delete(m.byID, u.ID)
		return nil, err
	}
	return sanitize(u), nil
}

// Get 按 ID 获取（隐藏密码哈希）
func (m *Manager) Get(id string) (*User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	return sanitize(u), true
}

// List 返回所有用户（隐藏密码哈希）
func (m *Manager) List() []*User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, sanitize(u))
	}
	return out
}

// UpdateProfile 更新档案，返回更新后的用户
// 调用方负责在主写入成功后触发计划反规范化重写
func (m *Manager) UpdateProfile(id string, p Profile) (*User, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, errors.New("name required")
	}
	if p.Language != "en" && p.Language != "th" {
		return nil, fmt.Errorf("unsupported language: %s", p.Language)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Name = strings.TrimSpace(p.Name)
	u.Department = p.Department
	u.Language = p.Language
	if p.Projects != nil {
		u.Projects = p.Projects
	}
	if p.AvatarURL != "" {
		u.AvatarURL = p.AvatarURL
	}
	u.UpdatedAt = m.now()
	if err := m.save(); err != nil {
		return nil, err
	}
	return sanitize(u), nil
}

// SetAvatarURL 只更新头像地址，上传流程使用
func (m *Manager) SetAvatarURL(id, url string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.AvatarURL = url
	u.UpdatedAt = m.now()
	if err := m.save(); err != nil {
		return nil, err
	}
	return sanitize(u), nil
}

// GenerateToken 为用户签发会话 token
func (m *Manager) GenerateToken(id string) (string, error) {
	m.mu.RLock()
	u, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}

	now := m.now()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyToken 校验 token 并返回 claims
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
