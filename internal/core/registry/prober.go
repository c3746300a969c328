package registry

import (
	"context"
	"net"
	"time"

	"github.com/dep2p/go-locator/pkg/types"
)

// DefaultProbeTimeout 单个端点的探测超时
const DefaultProbeTimeout = 200 * time.Millisecond

// DialProber 基于连接建立的存在性探测
//
// 流式端点（tcp/ssl/ws/wss）逐个拨号，任意一个建立成功即视为在线；
// 数据报端点无法做连接探测，视为在线。没有端点时返回 ErrNoEndpoints。
type DialProber struct {
	Timeout time.Duration

	dial func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewDialProber 创建 DialProber
func NewDialProber(timeout time.Duration) *DialProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	d := &net.Dialer{}
	return &DialProber{Timeout: timeout, dial: d.DialContext}
}

// Probe 实现 Prober
func (p *DialProber) Probe(ctx context.Context, proxy *types.Proxy) error {
	if proxy == nil || len(proxy.Endpoints) == 0 {
		return ErrNoEndpoints
	}

	var lastErr error
	for _, ep := range proxy.Endpoints {
		if ep.IsDatagram() {
			return nil
		}
		if err := p.dialOne(ctx, ep); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (p *DialProber) dialOne(ctx context.Context, ep types.Endpoint) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	conn, err := p.dial(ctx, "tcp", ep.Address())
	if err != nil {
		return err
	}
	return conn.Close()
}

// ProberFunc 函数形式的 Prober
type ProberFunc func(ctx context.Context, proxy *types.Proxy) error

// Probe 实现 Prober
func (f ProberFunc) Probe(ctx context.Context, proxy *types.Proxy) error {
	return f(ctx, proxy)
}
