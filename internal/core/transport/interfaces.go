package transport

import (
	"fmt"
	"net"
	"strings"
)

// Interface 一个可用于组播的本地接口
//
// Iface 为 nil 表示由系统选择默认接口。
type Interface struct {
	Iface *net.Interface
	IPv4  net.IP
	IPv6  net.IP
}

// Name 接口名（默认接口返回 "default"）
func (i Interface) Name() string {
	if i.Iface == nil {
		return "default"
	}
	return i.Iface.Name
}

// IP 返回指定地址族的接口地址
func (i Interface) IP(ipv6 bool) net.IP {
	if ipv6 {
		return i.IPv6
	}
	return i.IPv4
}

// MulticastInterfaces 枚举组播接口
//
// name 非空时只返回该接口；否则返回所有 up、支持组播、非回环且非虚拟网桥的接口。
// 没有可用接口时返回一个默认接口。
func MulticastInterfaces(name string) ([]Interface, error) {
	if name != "" {
		ifi, err := net.InterfaceByName(name)
		if err != nil {
			return nil, fmt.Errorf("transport: interface %q: %w", name, err)
		}
		return []Interface{interfaceAddrs(ifi)}, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("transport: list interfaces: %w", err)
	}

	var out []Interface
	for i := range ifaces {
		ifi := &ifaces[i]
		if ifi.Flags&net.FlagUp == 0 {
			continue
		}
		if ifi.Flags&net.FlagMulticast == 0 {
			continue
		}
		if ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		// 容器网桥的地址对外部节点不可达
		if isVirtualBridgeInterface(ifi.Name) {
			logger.Debug("跳过虚拟网桥接口", "interface", ifi.Name)
			continue
		}
		out = append(out, interfaceAddrs(ifi))
	}

	if len(out) == 0 {
		logger.Debug("没有可用的组播接口，使用系统默认接口")
		out = append(out, Interface{})
	}
	return out, nil
}

// interfaceAddrs 取接口的第一个可用 IPv4 与 IPv6 地址
func interfaceAddrs(ifi *net.Interface) Interface {
	out := Interface{Iface: ifi}

	addrs, err := ifi.Addrs()
	if err != nil {
		return out
	}
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if ip4 := ip.To4(); ip4 != nil {
			if out.IPv4 == nil && isValidReplyIP(ip4) {
				out.IPv4 = ip4
			}
			continue
		}
		// 链路本地 IPv6 需要 zone，不适合作为应答地址
		if out.IPv6 == nil && !ip.IsLinkLocalUnicast() {
			out.IPv6 = ip
		}
	}
	return out
}

// isVirtualBridgeInterface 判断是否为容器或虚拟化网桥
func isVirtualBridgeInterface(name string) bool {
	if name == "docker0" || name == "docker_gwbridge" {
		return true
	}
	for _, prefix := range []string{
		"br-", "veth",
		"cni", "flannel", "calico", "weave",
		"virbr", "lxcbr", "lxdbr",
	} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// isValidReplyIP 检查 IPv4 地址是否适合作为单播应答地址
//
//   - 198.18.0.0/15: RFC 2544 基准测试地址（VPN/代理常用）
//   - 100.64.0.0/10: RFC 6598 运营商级 NAT 地址
//   - 169.254.0.0/16: 链路本地地址
func isValidReplyIP(ip4 net.IP) bool {
	if ip4[0] == 198 && (ip4[1] == 18 || ip4[1] == 19) {
		return false
	}
	if ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127 {
		return false
	}
	if ip4.IsLinkLocalUnicast() {
		return false
	}
	return true
}

// isUnspecifiedHost 主机为空或通配地址
func isUnspecifiedHost(host string) bool {
	if host == "" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsUnspecified()
}
