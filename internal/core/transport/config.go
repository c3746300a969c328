package transport

import (
	"github.com/dep2p/go-locator/config"
)

// Config 传输配置
type Config struct {
	// Groups 使用的组播组地址
	Groups []string

	// Interface 指定接口名（空表示全部组播接口）
	Interface string

	// TTL 组播 TTL / hop limit
	TTL int

	// ReplyHost、ReplyPort 应答端点绑定地址
	ReplyHost string
	ReplyPort int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Groups: []string{config.DefaultMulticastIPv4},
		TTL:    1,
	}
}

// ConfigFromUnified 从统一配置创建传输配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	d := cfg.Discovery
	c := Config{
		Interface: d.Interface,
		TTL:       d.MulticastTTL,
		ReplyHost: d.ReplyHost,
		ReplyPort: d.ReplyPort,
	}
	if d.EnableIPv4 {
		c.Groups = append(c.Groups, d.MulticastIPv4)
	}
	if d.EnableIPv6 {
		c.Groups = append(c.Groups, d.MulticastIPv6)
	}
	if c.TTL <= 0 {
		c.TTL = 1
	}
	return c
}

// ParseGroups 解析全部组播组
func (c Config) ParseGroups() ([]Group, error) {
	groups := make([]Group, 0, len(c.Groups))
	for _, s := range c.Groups {
		g, err := ParseGroup(s)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// replyNetwork 应答端点使用的网络
func (c Config) replyNetwork(groups []Group) string {
	v4, v6 := false, false
	for _, g := range groups {
		if g.IPv6 {
			v6 = true
		} else {
			v4 = true
		}
	}
	switch {
	case v4 && v6:
		return "udp"
	case v6:
		return "udp6"
	default:
		return "udp4"
	}
}
