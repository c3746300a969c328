package config

import "net"

// AdminConfig 注册管理 HTTP 接口配置
//
// 管理接口供服务端发布自身适配器，发现客户端不使用。
type AdminConfig struct {
	// Enabled 是否启用
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ListenAddr 监听地址
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
}

// DefaultAdminConfig 返回默认管理接口配置
func DefaultAdminConfig() AdminConfig {
	return AdminConfig{
		Enabled:    false,
		ListenAddr: "127.0.0.1:4062",
	}
}

// Validate 验证管理接口配置
func (c AdminConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return newConfigError("admin.listen_addr", err.Error())
	}
	return nil
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// Enabled 是否收集指标
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ListenAddr /metrics 监听地址（空表示只收集不暴露）
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`

	// Namespace 指标命名空间
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "locator",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if !c.Enabled || c.ListenAddr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return newConfigError("metrics.listen_addr", err.Error())
	}
	return nil
}
