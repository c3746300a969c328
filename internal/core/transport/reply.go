package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/dep2p/go-locator/internal/core/wire"
	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/lib/log"
	"github.com/dep2p/go-locator/pkg/types"
)

// 确保实现了接口
var _ interfaces.ReplyEndpoint = (*ReplyEndpoint)(nil)

// ReplyEndpoint 单播应答端点
//
// 维护 应答身份 → 处理者 的分发表。远端应答经 UDP 到达，
// 同进程 Responder 通过 Deliver 直接投递，两条路径共用同一张表。
type ReplyEndpoint struct {
	network string
	host    string
	port    int

	mu       sync.RWMutex
	handlers map[string]interfaces.ReplyHandler

	connMu sync.Mutex
	conn   net.PacketConn
	addr   string
	closed bool
	wg     sync.WaitGroup

	// onDrop 没有处理者的应答（用于统计）
	onDrop func(reply *types.Reply)
}

// NewReplyEndpoint 创建应答端点（Start 时绑定套接字）
func NewReplyEndpoint(cfg Config) (*ReplyEndpoint, error) {
	groups, err := cfg.ParseGroups()
	if err != nil {
		return nil, err
	}
	return &ReplyEndpoint{
		network:  cfg.replyNetwork(groups),
		host:     cfg.ReplyHost,
		port:     cfg.ReplyPort,
		handlers: make(map[string]interfaces.ReplyHandler),
	}, nil
}

// SetDropHook 设置无人认领应答的回调
func (e *ReplyEndpoint) SetDropHook(fn func(reply *types.Reply)) {
	e.onDrop = fn
}

// Start 绑定套接字并开始接收
func (e *ReplyEndpoint) Start() error {
	e.connMu.Lock()
	defer e.connMu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.conn != nil {
		return nil
	}

	conn, err := net.ListenPacket(e.network, net.JoinHostPort(e.host, portString(e.port)))
	if err != nil {
		return fmt.Errorf("transport: bind reply endpoint: %w", err)
	}
	e.conn = conn

	port := conn.LocalAddr().(*net.UDPAddr).Port
	e.addr = net.JoinHostPort(e.host, portString(port))

	e.wg.Add(1)
	go e.serve(conn)

	logger.Info("应答端点已启动", "addr", conn.LocalAddr().String(), "advertised", e.addr)
	return nil
}

// serve 接收循环
func (e *ReplyEndpoint) serve(conn net.PacketConn) {
	defer e.wg.Done()

	buf := make([]byte, wire.MaxDatagramSize)
	for {
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Debug("读取应答失败", "error", err)
			continue
		}

		msg, err := wire.Decode(buf[:n])
		if err != nil {
			logger.Debug("丢弃无法解码的应答", "from", src.String(), "error", err)
			continue
		}
		if msg.Reply == nil {
			continue
		}
		e.dispatch(msg.Reply)
	}
}

// dispatch 按应答身份分发
func (e *ReplyEndpoint) dispatch(reply *types.Reply) {
	e.mu.RLock()
	h, ok := e.handlers[reply.ReplyID]
	e.mu.RUnlock()

	if !ok {
		logger.Debug("丢弃无人认领的应答",
			"replyID", log.TruncateID(reply.ReplyID, 8),
			"kind", reply.Kind.String())
		if e.onDrop != nil {
			e.onDrop(reply)
		}
		return
	}
	h.HandleReply(reply)
}

// Deliver 实现 interfaces.ReplyTarget（同进程投递）
func (e *ReplyEndpoint) Deliver(_ context.Context, reply *types.Reply) error {
	e.dispatch(reply)
	return nil
}

// Addr 实现 interfaces.ReplyTarget
//
// 未绑定主机时返回 ":port"，由 LookupProxy 或远端 Responder 补全主机。
func (e *ReplyEndpoint) Addr() string {
	e.connMu.Lock()
	defer e.connMu.Unlock()
	return e.addr
}

// Register 注册应答处理者
func (e *ReplyEndpoint) Register(replyID string, h interfaces.ReplyHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.handlers[replyID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateReplyID, replyID)
	}
	e.handlers[replyID] = h
	return nil
}

// Unregister 注销应答处理者
func (e *ReplyEndpoint) Unregister(replyID string) {
	e.mu.Lock()
	delete(e.handlers, replyID)
	e.mu.Unlock()
}

// Len 当前注册的处理者数量
func (e *ReplyEndpoint) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}

// Close 关闭套接字并等待接收循环退出
func (e *ReplyEndpoint) Close() error {
	e.connMu.Lock()
	e.closed = true
	conn := e.conn
	e.conn = nil
	e.connMu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	e.wg.Wait()
	return err
}
