package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromJSON 从 JSON 数据创建配置（在默认值之上覆盖）
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// FromYAML 从 YAML 数据创建配置（在默认值之上覆盖）
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ToJSON 将配置序列化为缩进 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Load 从文件加载配置并验证
//
// 按扩展名选择格式：.yaml/.yml 使用 YAML，其余使用 JSON。
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if err := LoadInto(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto 把文件内容覆盖到已有配置上并验证
//
// 文件中未出现的字段保持 cfg 原值，可用于在预设之上叠加配置文件。
func LoadInto(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg.Validate()
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "client":    只做发现查询，不运行 Responder
//   - "server":    运行 Responder 与管理接口，发布本地适配器
//   - "colocated": 单进程部署，查询直接走本地 Registry，同时保留组播
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "client":
		cfg.Discovery.EnableResponder = false
		cfg.Discovery.Colocated = false
		cfg.Admin.Enabled = false
	case "server":
		cfg.Discovery.EnableResponder = true
		cfg.Admin.Enabled = true
	case "colocated":
		cfg.Discovery.EnableResponder = true
		cfg.Discovery.Colocated = true
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
	return nil
}
