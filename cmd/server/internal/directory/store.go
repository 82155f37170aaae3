package directory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teamplanhq/weekplan/pkg/logger"
)

// Store 目录存储: 部门与项目各一个 JSON 状态文件，全量写入 tmp+rename
type Store struct {
	mu          sync.RWMutex
	dir         string
	logger      *slog.Logger
	departments map[string]*Department
	projects    map[string]*Project
	now         func() time.Time
}

type state struct {
	Departments []*Department `json:"departments"`
	Projects    []*Project    `json:"projects"`
}

// NewStore 打开目录存储并载入现有状态
func NewStore(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure directory dir: %w", err)
	}
	s := &Store{
		dir:         dir,
		logger:      log,
		departments: map[string]*Department{},
		projects:    map[string]*Project{},
		now:         time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) statePath() string {
	return filepath.Join(s.dir, "directory.json")
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.statePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil // first run
		}
		return fmt.Errorf("read directory state: %w", err)
	}
	var st state
	if err := json.Unmarshal(b, &st); err != nil {
		return fmt.Errorf("unmarshal directory state: %w", err)
	}
	for _, d := range st.Departments {
		s.departments[d.ID] = d
	}
	for _, p := range st.Projects {
		s.projects[p.ID] = p
	}
	return nil
}

// saveLocked 全量持久化，调用方需持有写锁
func (s *Store) saveLocked() error {
	st := state{Departments: []*Department{}, Projects: []*Project{}}
	for _, d := range s.departments {
		st.Departments = append(st.Departments, d)
	}
	for _, p := range s.projects {
		st.Projects = append(st.Projects, p)
	}
	sort.Slice(st.Departments, func(i, j int) bool { return st.Departments[i].Name < st.Departments[j].Name })
	sort.Slice(st.Projects, func(i, j int) bool { return st.Projects[i].Name < st.Projects[j].Name })

	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal directory state: %w", err)
	}
	tmp := s.statePath() + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		logger.LogStoreWrite(s.logger, "directory", "save", "directory.json", err)
		return fmt.Errorf("write tmp file: %w", err)
	}
	if err := os.Rename(tmp, s.statePath()); err != nil {
		logger.LogStoreWrite(s.logger, "directory", "save", "directory.json", err)
		return fmt.Errorf("rename tmp file: %w", err)
	}
	logger.LogStoreWrite(s.logger, "directory", "save", "directory.json", nil)
	return nil
}

// ---- Departments ----

// ListDepartments 返回全部部门，activeOnly 时过滤停用项；按名称排序
func (s *Store) ListDepartments(activeOnly bool) []Department {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Department{}
	for _, d := range s.departments {
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DepartmentNames 已知部门名列表（含停用），供聚合报告保证完整性
func (s *Store) DepartmentNames() []string {
	depts := s.ListDepartments(false)
	names := make([]string, 0, len(depts))
	for _, d := range depts {
		names = append(names, d.Name)
	}
	return names
}

// GetDepartment 按 ID 查询
func (s *Store) GetDepartment(id string) (Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.departments[id]
	if !ok {
		return Department{}, ErrNotFound
	}
	return *d, nil
}

// CreateDepartment 创建部门，名称唯一（大小写不敏感）
func (s *Store) CreateDepartment(name, colorHex, colorHexLight string) (Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Department{}, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.departments {
		if strings.EqualFold(d.Name, name) {
			return Department{}, ErrDuplicateName
		}
	}

	now := s.now()
	d := &Department{
		ID:            uuid.NewString(),
		Name:          name,
		IsActive:      true,
		ColorHex:      colorHex,
		ColorHexLight: colorHexLight,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.departments[d.ID] = d
	if err := s.saveLocked(); err != nil {
		delete(s.departments, d.ID)
		return Department{}, err
	}
	return *d, nil
}

// UpdateDepartment 部分更新
func (s *Store) UpdateDepartment(id string, upd DepartmentUpdate) (Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.departments[id]
	if !ok {
		return Department{}, ErrNotFound
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		d.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.ColorHex != nil {
		d.ColorHex = *upd.ColorHex
	}
	if upd.ColorHexLight != nil {
		d.ColorHexLight = *upd.ColorHexLight
	}
	if upd.IconURL != nil {
		d.IconURL = *upd.IconURL
	}
	d.UpdatedAt = s.now()
	if err := s.saveLocked(); err != nil {
		return Department{}, err
	}
	return *d, nil
}

// SetDepartmentActive 启用/停用
func (s *Store) SetDepartmentActive(id string, active bool) (Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.departments[id]
	if !ok {
		return Department{}, ErrNotFound
	}
	d.IsActive = active
	d.UpdatedAt = s.now()
	if err := s.saveLocked(); err != nil {
		return Department{}, err
	}
	return *d, nil
}

// DeleteDepartment 删除实体，不级联清理计划上的反规范化引用
func (s *Store) DeleteDepartment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departments[id]; !ok {
		return ErrNotFound
	}
	delete(s.departments, id)
	return s.saveLocked()
}

// ---- Projects ----

// ListProjects 返回全部项目，activeOnly 时过滤停用项
func (s *Store) ListProjects(activeOnly bool) []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Project{}
	for _, p := range s.projects {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetProject 按 ID 查询
func (s *Store) GetProject(id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return *p, nil
}

// CreateProject 创建项目
func (s *Store) CreateProject(name string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if strings.EqualFold(p.Name, name) {
			return Project{}, ErrDuplicateName
		}
	}

	now := s.now()
	p := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.projects[p.ID] = p
	if err := s.saveLocked(); err != nil {
		delete(s.projects, p.ID)
		return Project{}, err
	}
	return *p, nil
}

// UpdateProject 部分更新
func (s *Store) UpdateProject(id string, upd ProjectUpdate) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		p.Name = strings.TrimSpace(*upd.Name)
	}
	p.UpdatedAt = s.now()
	if err := s.saveLocked(); err != nil {
		return Project{}, err
	}
	return *p, nil
}

// SetProjectActive 启用/停用
func (s *Store) SetProjectActive(id string, active bool) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	p.IsActive = active
	p.UpdatedAt = s.now()
	if err := s.saveLocked(); err != nil {
		return Project{}, err
	}
	return *p, nil
}

// DeleteProject 删除实体
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	return s.saveLocked()
}
