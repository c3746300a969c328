package types

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ============================================================================
//                              Endpoint - 网络端点
// ============================================================================

// 已知传输协议
const (
	TransportUDP = "udp"
	TransportTCP = "tcp"
	TransportSSL = "ssl"
	TransportWS  = "ws"
	TransportWSS = "wss"
)

// Endpoint 对象适配器监听的网络端点
//
// 外部表示格式为 "transport:host:port"，例如 "udp:host:4061"；
// IPv6 主机使用方括号："tcp:[::1]:4061"。
type Endpoint struct {
	// Transport 传输协议（udp/tcp/ssl/ws/wss）
	Transport string

	// Host 主机名或 IP
	Host string

	// Port 端口
	Port int
}

// ParseEndpoint 解析 "transport:host:port" 格式的端点
func ParseEndpoint(s string) (Endpoint, error) {
	transport, rest, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidEndpoint, s)
	}
	if transport == "" {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrEmptyTransport, s)
	}

	host, portStr, err := net.SplitHostPort(rest)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q: %v", ErrInvalidEndpoint, s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q: %v", ErrInvalidEndpoint, s, err)
	}

	ep := Endpoint{
		Transport: strings.ToLower(transport),
		Host:      host,
		Port:      port,
	}
	if err := ep.Validate(); err != nil {
		return Endpoint{}, err
	}
	return ep, nil
}

// MustParseEndpoint 解析端点，失败时 panic（用于测试和常量）
func MustParseEndpoint(s string) Endpoint {
	ep, err := ParseEndpoint(s)
	if err != nil {
		panic(err)
	}
	return ep
}

// ParseEndpoints 批量解析端点
func ParseEndpoints(ss []string) ([]Endpoint, error) {
	eps := make([]Endpoint, 0, len(ss))
	for _, s := range ss {
		ep, err := ParseEndpoint(s)
		if err != nil {
			return nil, err
		}
		eps = append(eps, ep)
	}
	return eps, nil
}

// Validate 校验端点字段
func (e Endpoint) Validate() error {
	if e.Transport == "" {
		return ErrEmptyTransport
	}
	if e.Port < 0 || e.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, e.Port)
	}
	return nil
}

// String 返回 "transport:host:port" 表示
func (e Endpoint) String() string {
	return e.Transport + ":" + e.Address()
}

// Address 返回 "host:port"，可直接用于 net.Dial
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// IsDatagram 是否为数据报端点
func (e Endpoint) IsDatagram() bool {
	return e.Transport == TransportUDP
}

// MarshalText 实现 encoding.TextMarshaler
func (e Endpoint) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (e *Endpoint) UnmarshalText(b []byte) error {
	ep, err := ParseEndpoint(string(b))
	if err != nil {
		return err
	}
	*e = ep
	return nil
}

// EndpointStrings 将端点列表转换为字符串列表
func EndpointStrings(eps []Endpoint) []string {
	out := make([]string, len(eps))
	for i, ep := range eps {
		out[i] = ep.String()
	}
	return out
}

// MergeEndpoints 合并多个端点集合
//
// 结果保持首次出现的顺序并去重，用于副本组端点聚合。
func MergeEndpoints(sets ...[]Endpoint) []Endpoint {
	var out []Endpoint
	seen := make(map[Endpoint]struct{})
	for _, set := range sets {
		for _, ep := range set {
			if _, ok := seen[ep]; ok {
				continue
			}
			seen[ep] = struct{}{}
			out = append(out, ep)
		}
	}
	return out
}

// CloneEndpoints 复制端点切片
func CloneEndpoints(eps []Endpoint) []Endpoint {
	if eps == nil {
		return nil
	}
	out := make([]Endpoint, len(eps))
	copy(out, eps)
	return out
}
