package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedDepartment 种子文件中的部门条目
type SeedDepartment struct {
	Name          string `yaml:"name"`
	ColorHex      string `yaml:"colorHex"`
	ColorHexLight string `yaml:"colorHexLight"`
}

type seedFile struct {
	Departments []SeedDepartment `yaml:"departments"`
}

// DefaultSeedDepartments 团队初始部门集
var DefaultSeedDepartments = []SeedDepartment{
	{Name: "IT", ColorHex: "#2563eb", ColorHexLight: "#dbeafe"},
	{Name: "Game", ColorHex: "#7c3aed", ColorHexLight: "#ede9fe"},
	{Name: "Design", ColorHex: "#db2777", ColorHexLight: "#fce7f3"},
	{Name: "QA", ColorHex: "#059669", ColorHexLight: "#d1fae5"},
	{Name: "Marketing", ColorHex: "#d97706", ColorHexLight: "#fef3c7"},
	{Name: "Management", ColorHex: "#4b5563", ColorHexLight: "#f3f4f6"},
	{Name: "Other", ColorHex: "#6b7280", ColorHexLight: "#f9fafb"},
}

// LoadSeedFile 读取 YAML 部门种子文件
func LoadSeedFile(path string) ([]SeedDepartment, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("unmarshal seed file: %w", err)
	}
	return f.Departments, nil
}

// Seed 在目录为空时写入种子部门，已有数据时不做任何事
func (s *Store) Seed(seeds []SeedDepartment) (created int, err error) {
	if len(s.ListDepartments(false)) > 0 {
		return 0, nil
	}
	for _, seed := range seeds {
		if _, err := s.CreateDepartment(seed.Name, seed.ColorHex, seed.ColorHexLight); err != nil {
			return created, fmt.Errorf("seed department %s: %w", seed.Name, err)
		}
		created++
	}
	return created, nil
}
