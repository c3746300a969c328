// Package config 提供统一的配置管理
//
// 本包采用与组件对应的分层配置：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，带 DefaultXxxConfig() 与 Validate()
//   - 支持从 JSON / YAML 加载（Load、FromJSON、FromYAML）
//   - 支持预设配置（client/server/colocated）
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Discovery.DomainID = "prod"
//
//	// 从文件加载（按扩展名选择格式）
//	cfg, err := config.Load("locatord.yaml")
package config

// Config 是 go-locator 的完整配置结构
//
//   - Discovery: 组播发现协议（域、组播地址、超时、重试、副本聚合）
//   - Admin:     注册管理 HTTP 接口
//   - Metrics:   Prometheus 指标
//   - Log:       日志
type Config struct {
	// Discovery 发现配置
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`

	// Admin 管理接口配置
	Admin AdminConfig `json:"admin" yaml:"admin"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Discovery: DefaultDiscoveryConfig(),
		Admin:     DefaultAdminConfig(),
		Metrics:   DefaultMetricsConfig(),
		Log:       DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Discovery.Validate(); err != nil {
		return err
	}
	if err := c.Admin.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}

// Clone 返回配置的深拷贝
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
