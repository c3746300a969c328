package config

import (
	"errors"
	"fmt"
)

// ValidateAll 验证整个配置的有效性
//
// 这是 Config.Validate() 的别名，nil 配置返回错误。
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 同时禁用 IPv4/IPv6 -> 启用 IPv4
//   - 组播地址为空 -> 使用默认组播地址
//   - 负的重试次数 -> 使用默认值
//   - 设置了缓存 TTL 但容量为 0 -> 使用默认容量
//
// 延迟倍数小于 1 不做修复，直接返回验证错误。
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	d := &c.Discovery
	if !d.EnableIPv4 && !d.EnableIPv6 {
		d.EnableIPv4 = true
	}
	if d.EnableIPv4 && d.MulticastIPv4 == "" {
		d.MulticastIPv4 = DefaultMulticastIPv4
	}
	if d.EnableIPv6 && d.MulticastIPv6 == "" {
		d.MulticastIPv6 = DefaultMulticastIPv6
	}
	if d.RetryCount < 0 {
		d.RetryCount = DefaultRetryCount
	}
	if d.CacheTTL > 0 && d.CacheSize <= 0 {
		d.CacheSize = DefaultDiscoveryConfig().CacheSize
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}
	return c, nil
}

// MustValidate 验证配置，如果失败则 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}
}

// ValidateCompatibility 验证配置之间的兼容性
//
// 管理接口与指标接口不能监听同一地址。
func ValidateCompatibility(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Admin.Enabled && c.Metrics.Enabled &&
		c.Metrics.ListenAddr != "" && c.Metrics.ListenAddr == c.Admin.ListenAddr {
		return newConfigError("metrics.listen_addr", "conflicts with admin.listen_addr")
	}
	return nil
}
