package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-locator/internal/core/wire"
	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/types"
)

// maxInflightRequests 单个监听者同时处理的请求上限，超出时丢弃新请求
const maxInflightRequests = 64

// MulticastListener 组播请求监听者
//
// 加入组播组后，把每个请求转换为 Query 交给 handler，
// 应答目标是请求中携带的单播地址。
type MulticastListener struct {
	group   Group
	ifaces  []Interface
	handler interfaces.Lookup

	mu     sync.Mutex
	conn   net.PacketConn
	mc     multicastConn
	joined []*net.Interface
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMulticastListeners 为每个组播组创建一个监听者
func NewMulticastListeners(cfg Config, handler interfaces.Lookup) ([]*MulticastListener, error) {
	groups, err := cfg.ParseGroups()
	if err != nil {
		return nil, err
	}
	ifaces, err := MulticastInterfaces(cfg.Interface)
	if err != nil {
		return nil, err
	}

	out := make([]*MulticastListener, 0, len(groups))
	for _, g := range groups {
		out = append(out, &MulticastListener{group: g, ifaces: ifaces, handler: handler})
	}
	return out, nil
}

// Group 返回监听的组播组
func (l *MulticastListener) Group() Group {
	return l.group
}

// Start 绑定组播端口、加入组播组并开始接收
func (l *MulticastListener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		return nil
	}

	lc := net.ListenConfig{Control: reuseControl}
	conn, err := lc.ListenPacket(context.Background(), l.group.Network(), net.JoinHostPort("", portString(l.group.Addr.Port)))
	if err != nil {
		return fmt.Errorf("transport: listen %s: %w", l.group, err)
	}

	mc := newMulticastConn(conn, l.group.IPv6)
	var joinErr error
	for _, ifi := range l.ifaces {
		if err := mc.JoinGroup(ifi.Iface, &net.UDPAddr{IP: l.group.Addr.IP}); err != nil {
			joinErr = multierr.Append(joinErr, fmt.Errorf("%s: %w", ifi.Name(), err))
			continue
		}
		l.joined = append(l.joined, ifi.Iface)
	}
	if len(l.joined) == 0 {
		conn.Close()
		return fmt.Errorf("transport: join %s: %w", l.group, joinErr)
	}
	if joinErr != nil {
		logger.Warn("部分接口加入组播组失败", "group", l.group.String(), "error", joinErr)
	}

	l.conn = conn
	l.mc = mc
	l.ctx, l.cancel = context.WithCancel(context.Background())

	l.wg.Add(1)
	go l.serve(l.ctx, conn)

	logger.Info("组播监听已启动", "group", l.group.String(), "interfaces", len(l.joined))
	return nil
}

// serve 接收循环
//
// 每个请求在独立的 goroutine 中处理，慢请求（例如带存活探测的对象查询）
// 不阻塞同一组播组上的其他请求。
func (l *MulticastListener) serve(ctx context.Context, conn net.PacketConn) {
	defer l.wg.Done()

	var g errgroup.Group
	g.SetLimit(maxInflightRequests)
	defer g.Wait()

	buf := make([]byte, wire.MaxDatagramSize)
	for {
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Debug("读取组播请求失败", "error", err)
			continue
		}

		msg, err := wire.Decode(buf[:n])
		if err != nil {
			logger.Debug("丢弃无法解码的请求", "from", src.String(), "error", err)
			continue
		}
		if msg.Request == nil {
			continue
		}

		target, err := newUDPReplyTarget(conn, msg.Request.ReplyAddr, src)
		if err != nil {
			logger.Debug("请求的应答地址无效", "from", src.String(), "error", err)
			continue
		}
		req := msg.Request
		if !g.TryGo(func() error {
			if err := l.handler.Query(ctx, req.Query(target)); err != nil {
				logger.Debug("处理组播请求失败", "kind", req.Kind.String(), "error", err)
			}
			return nil
		}) {
			logger.Debug("并发请求过多，丢弃请求", "from", src.String(), "kind", req.Kind.String())
		}
	}
}

// Close 离开组播组并关闭套接字
func (l *MulticastListener) Close() error {
	l.mu.Lock()
	conn, mc, joined := l.conn, l.mc, l.joined
	l.conn, l.mc, l.joined = nil, nil, nil
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()

	if conn == nil {
		return nil
	}

	var err error
	for _, ifi := range joined {
		err = multierr.Append(err, mc.LeaveGroup(ifi, &net.UDPAddr{IP: l.group.Addr.IP}))
	}
	err = multierr.Append(err, conn.Close())
	l.wg.Wait()
	return err
}

// ============================================================================
//                              UDP 应答目标
// ============================================================================

// udpReplyTarget 经 UDP 单播应答
type udpReplyTarget struct {
	conn net.PacketConn
	addr *net.UDPAddr
}

// newUDPReplyTarget 解析请求携带的应答地址
//
// 主机为空或通配地址时使用数据报的源地址。
func newUDPReplyTarget(conn net.PacketConn, replyAddr string, src net.Addr) (*udpReplyTarget, error) {
	host, port, err := net.SplitHostPort(replyAddr)
	if err != nil {
		return nil, err
	}
	if isUnspecifiedHost(host) {
		if ua, ok := src.(*net.UDPAddr); ok {
			host = ua.IP.String()
		}
	}
	ua, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, err
	}
	return &udpReplyTarget{conn: conn, addr: ua}, nil
}

// Deliver 实现 interfaces.ReplyTarget
func (t *udpReplyTarget) Deliver(_ context.Context, reply *types.Reply) error {
	b, err := wire.EncodeReply(reply)
	if err != nil {
		return err
	}
	_, err = t.conn.WriteTo(b, t.addr)
	return err
}

// Addr 实现 interfaces.ReplyTarget
func (t *udpReplyTarget) Addr() string {
	return t.addr.String()
}

// NewUDPReplyTarget 创建向 addr 单播应答的目标（供测试与工具使用）
func NewUDPReplyTarget(conn net.PacketConn, addr string) (interfaces.ReplyTarget, error) {
	return newUDPReplyTarget(conn, addr, nil)
}
