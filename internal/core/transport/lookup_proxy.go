package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"go.uber.org/multierr"

	"github.com/dep2p/go-locator/internal/core/wire"
	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/lib/log"
)

var logger = log.Logger("core/transport")

// 确保实现了接口
var _ interfaces.Lookup = (*LookupProxy)(nil)

// LookupProxy 经某个本地接口向组播组发送查询
type LookupProxy struct {
	iface Interface
	group Group
	ttl   int

	mu   sync.Mutex
	conn net.PacketConn
	mc   multicastConn
	done bool
}

// NewLookupProxy 创建 LookupProxy（Start 之前不可发送）
func NewLookupProxy(iface Interface, group Group, ttl int) *LookupProxy {
	return &LookupProxy{iface: iface, group: group, ttl: ttl}
}

// NewLookupProxies 为每个接口和组播组创建一个 LookupProxy
func NewLookupProxies(cfg Config) ([]*LookupProxy, error) {
	groups, err := cfg.ParseGroups()
	if err != nil {
		return nil, err
	}
	ifaces, err := MulticastInterfaces(cfg.Interface)
	if err != nil {
		return nil, err
	}

	var proxies []*LookupProxy
	for _, g := range groups {
		for _, ifi := range ifaces {
			if ifi.Iface != nil && ifi.IP(g.IPv6) == nil {
				// 接口没有该地址族的地址
				continue
			}
			proxies = append(proxies, NewLookupProxy(ifi, g, cfg.TTL))
		}
	}
	if len(proxies) == 0 {
		// 所有接口都缺少对应地址族时退回系统默认接口
		for _, g := range groups {
			proxies = append(proxies, NewLookupProxy(Interface{}, g, cfg.TTL))
		}
	}
	return proxies, nil
}

// String 返回 "接口 → 组播组"
func (p *LookupProxy) String() string {
	return p.iface.Name() + "->" + p.group.String()
}

// Start 打开发送套接字并设置组播出口接口
func (p *LookupProxy) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return ErrClosed
	}
	if p.conn != nil {
		return nil
	}

	conn, err := net.ListenPacket(p.group.Network(), ":0")
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", p, err)
	}

	mc := newMulticastConn(conn, p.group.IPv6)
	var setupErr error
	if p.iface.Iface != nil {
		setupErr = multierr.Append(setupErr, mc.SetMulticastInterface(p.iface.Iface))
	}
	setupErr = multierr.Append(setupErr, mc.SetHops(p.ttl))
	setupErr = multierr.Append(setupErr, mc.SetMulticastLoopback(true))
	if setupErr != nil {
		conn.Close()
		return fmt.Errorf("transport: configure %s: %w", p, setupErr)
	}

	p.conn = conn
	p.mc = mc
	logger.Debug("组播发送端已就绪", "proxy", p.String())
	return nil
}

// Query 实现 interfaces.Lookup
//
// 应答地址的主机为通配地址时，用本接口的地址替换，
// 使远端 Responder 可以直接单播回来。
func (p *LookupProxy) Query(ctx context.Context, q *interfaces.Query) error {
	if q.ReplyTo == nil {
		return ErrNoReplyTarget
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	conn, done := p.conn, p.done
	p.mu.Unlock()
	if done {
		return ErrClosed
	}
	if conn == nil {
		return ErrNotStarted
	}

	b, err := wire.EncodeRequest(wire.RequestFromQuery(q, p.replyAddr(q.ReplyTo.Addr())))
	if err != nil {
		return err
	}
	if _, err := conn.WriteTo(b, p.group.Addr); err != nil {
		return fmt.Errorf("transport: send via %s: %w", p, err)
	}
	return nil
}

// replyAddr 替换通配的应答主机
func (p *LookupProxy) replyAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || !isUnspecifiedHost(host) {
		return addr
	}
	ip := p.iface.IP(p.group.IPv6)
	if ip == nil {
		return addr
	}
	return net.JoinHostPort(ip.String(), port)
}

// Close 关闭发送套接字
func (p *LookupProxy) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = true
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	p.mc = nil
	return err
}

// portString 端口转字符串
func portString(port int) string {
	return strconv.Itoa(port)
}
