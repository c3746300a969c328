package transport

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Group 组播组
type Group struct {
	Addr *net.UDPAddr
	IPv6 bool
}

// Network 返回地址族对应的网络名
func (g Group) Network() string {
	if g.IPv6 {
		return "udp6"
	}
	return "udp4"
}

// String 返回 "group:port"
func (g Group) String() string {
	return g.Addr.String()
}

// ParseGroup 解析组播组地址
func ParseGroup(addr string) (Group, error) {
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return Group{}, fmt.Errorf("transport: group %q: %w", addr, err)
	}
	if !ua.IP.IsMulticast() {
		return Group{}, fmt.Errorf("transport: %q is not a multicast address", addr)
	}
	return Group{Addr: ua, IPv6: ua.IP.To4() == nil}, nil
}

// multicastConn ipv4 / ipv6 PacketConn 的公共操作
type multicastConn interface {
	JoinGroup(ifi *net.Interface, group net.Addr) error
	LeaveGroup(ifi *net.Interface, group net.Addr) error
	SetMulticastInterface(ifi *net.Interface) error
	SetMulticastLoopback(on bool) error
	SetHops(n int) error
}

type ipv4Conn struct{ *ipv4.PacketConn }

func (c ipv4Conn) SetHops(n int) error { return c.SetMulticastTTL(n) }

type ipv6Conn struct{ *ipv6.PacketConn }

func (c ipv6Conn) SetHops(n int) error { return c.SetMulticastHopLimit(n) }

func newMulticastConn(c net.PacketConn, v6 bool) multicastConn {
	if v6 {
		return ipv6Conn{ipv6.NewPacketConn(c)}
	}
	return ipv4Conn{ipv4.NewPacketConn(c)}
}
