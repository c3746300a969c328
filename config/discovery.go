package config

import (
	"fmt"
	"net"
	"time"
)

// 发现协议默认值
const (
	// DefaultMulticastIPv4 IPv4 组播组与端口
	DefaultMulticastIPv4 = "239.255.0.1:4061"

	// DefaultMulticastIPv6 IPv6 组播组与端口
	DefaultMulticastIPv6 = "[ff15::1]:4061"

	// DefaultTimeout 单次尝试超时
	DefaultTimeout = 300 * time.Millisecond

	// DefaultRetryCount 总尝试次数
	DefaultRetryCount = 3

	// DefaultLatencyMultiplier 副本聚合等待的延迟倍数
	DefaultLatencyMultiplier = 1
)

// DiscoveryConfig 组播发现配置
type DiscoveryConfig struct {
	// DomainID 发现域，共享同一组播组的多个独立发现域以此区分
	DomainID string `json:"domain_id" yaml:"domain_id"`

	// MulticastIPv4 IPv4 组播地址 "group:port"
	MulticastIPv4 string `json:"multicast_ipv4,omitempty" yaml:"multicast_ipv4,omitempty"`

	// MulticastIPv6 IPv6 组播地址 "[group]:port"
	MulticastIPv6 string `json:"multicast_ipv6,omitempty" yaml:"multicast_ipv6,omitempty"`

	// EnableIPv4 是否使用 IPv4 组播
	EnableIPv4 bool `json:"enable_ipv4" yaml:"enable_ipv4"`

	// EnableIPv6 是否使用 IPv6 组播
	EnableIPv6 bool `json:"enable_ipv6" yaml:"enable_ipv6"`

	// Interface 指定网络接口名（空表示所有支持组播的接口）
	Interface string `json:"interface,omitempty" yaml:"interface,omitempty"`

	// MulticastTTL 组播 TTL / hop limit
	MulticastTTL int `json:"multicast_ttl,omitempty" yaml:"multicast_ttl,omitempty"`

	// ReplyHost 应答端点绑定主机（空表示通配地址）
	ReplyHost string `json:"reply_host,omitempty" yaml:"reply_host,omitempty"`

	// ReplyPort 应答端点绑定端口（0 表示临时端口）
	ReplyPort int `json:"reply_port,omitempty" yaml:"reply_port,omitempty"`

	// Timeout 单次尝试超时；<= 0 视为无限，会被强制为默认值
	Timeout Duration `json:"timeout" yaml:"timeout"`

	// RetryCount 总尝试次数（不是失败后的重试次数）
	RetryCount int `json:"retry_count" yaml:"retry_count"`

	// LatencyMultiplier 副本聚合等待 = 首个应答延迟 × 该倍数，必须 >= 1
	LatencyMultiplier int `json:"latency_multiplier" yaml:"latency_multiplier"`

	// EnableResponder 是否在本进程运行 Responder（发布本地 Registry）
	EnableResponder bool `json:"enable_responder" yaml:"enable_responder"`

	// Colocated 是否为 Requester 增加同进程 Lookup（不经网络直接查询本地 Registry）
	Colocated bool `json:"colocated,omitempty" yaml:"colocated,omitempty"`

	// CacheTTL 客户端解析结果缓存时间（0 表示不缓存）
	CacheTTL Duration `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`

	// CacheSize 客户端解析结果缓存容量
	CacheSize int `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`
}

// DefaultDiscoveryConfig 返回默认发现配置
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		DomainID:          "",
		MulticastIPv4:     DefaultMulticastIPv4,
		MulticastIPv6:     DefaultMulticastIPv6,
		EnableIPv4:        true,
		EnableIPv6:        false, // 默认禁用 IPv6 以避免部分网络不支持 ff15:: 组播
		MulticastTTL:      1,
		Timeout:           Duration(DefaultTimeout),
		RetryCount:        DefaultRetryCount,
		LatencyMultiplier: DefaultLatencyMultiplier,
		EnableResponder:   true,
		CacheSize:         1024,
	}
}

// Validate 验证发现配置
func (c DiscoveryConfig) Validate() error {
	if !c.EnableIPv4 && !c.EnableIPv6 {
		return newConfigError("discovery.enable_ipv4", "at least one of IPv4/IPv6 multicast must be enabled")
	}
	if c.EnableIPv4 {
		if err := validateMulticastAddr(c.MulticastIPv4, false); err != nil {
			return newConfigError("discovery.multicast_ipv4", err.Error())
		}
	}
	if c.EnableIPv6 {
		if err := validateMulticastAddr(c.MulticastIPv6, true); err != nil {
			return newConfigError("discovery.multicast_ipv6", err.Error())
		}
	}
	if c.LatencyMultiplier < 1 {
		return newConfigError("discovery.latency_multiplier",
			fmt.Sprintf("must be a positive integer, got %d", c.LatencyMultiplier))
	}
	if c.RetryCount < 0 {
		return newConfigError("discovery.retry_count", "must not be negative")
	}
	if c.ReplyPort < 0 || c.ReplyPort > 65535 {
		return newConfigError("discovery.reply_port", "out of range")
	}
	if c.MulticastTTL < 0 || c.MulticastTTL > 255 {
		return newConfigError("discovery.multicast_ttl", "out of range")
	}
	if c.CacheTTL > 0 && c.CacheSize <= 0 {
		return newConfigError("discovery.cache_size", "must be positive when cache_ttl is set")
	}
	return nil
}

// EffectiveTimeout 返回实际使用的单次尝试超时
//
// 数据报交换不可靠，不允许无限等待：<= 0 一律使用默认值。
func (c DiscoveryConfig) EffectiveTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout.Duration()
}

// EffectiveRetryCount 返回实际使用的总尝试次数（0 使用默认值）
func (c DiscoveryConfig) EffectiveRetryCount() int {
	if c.RetryCount <= 0 {
		return DefaultRetryCount
	}
	return c.RetryCount
}

func validateMulticastAddr(addr string, ipv6 bool) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("invalid group address %q", host)
	}
	if !ip.IsMulticast() {
		return fmt.Errorf("%q is not a multicast address", host)
	}
	if ipv6 != (ip.To4() == nil) {
		return fmt.Errorf("%q has the wrong address family", host)
	}
	return nil
}
