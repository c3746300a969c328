package transport

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/internal/core/wire"
	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/types"
)

// TestIsVirtualBridgeInterface 测试虚拟网桥识别
func TestIsVirtualBridgeInterface(t *testing.T) {
	for _, name := range []string{"docker0", "br-1a2b", "veth12", "cni0", "virbr0"} {
		assert.True(t, isVirtualBridgeInterface(name), name)
	}
	for _, name := range []string{"eth0", "en0", "wlan0"} {
		assert.False(t, isVirtualBridgeInterface(name), name)
	}
}

// TestIsValidReplyIP 测试应答地址过滤
func TestIsValidReplyIP(t *testing.T) {
	assert.True(t, isValidReplyIP(net.ParseIP("192.168.1.10").To4()))
	assert.False(t, isValidReplyIP(net.ParseIP("198.18.0.1").To4()))
	assert.False(t, isValidReplyIP(net.ParseIP("100.64.3.1").To4()))
	assert.False(t, isValidReplyIP(net.ParseIP("169.254.1.1").To4()))
}

// TestParseGroup 测试组播组解析
func TestParseGroup(t *testing.T) {
	g, err := ParseGroup(config.DefaultMulticastIPv4)
	require.NoError(t, err)
	assert.False(t, g.IPv6)
	assert.Equal(t, 4061, g.Addr.Port)
	assert.Equal(t, "udp4", g.Network())

	g, err = ParseGroup(config.DefaultMulticastIPv6)
	require.NoError(t, err)
	assert.True(t, g.IPv6)

	_, err = ParseGroup("10.0.0.1:4061")
	assert.Error(t, err)
}

// TestConfigFromUnified 测试组播组随地址族开关变化
func TestConfigFromUnified(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Discovery.EnableIPv6 = true
	cfg.Discovery.MulticastTTL = 0

	c := ConfigFromUnified(cfg)
	assert.Equal(t, []string{config.DefaultMulticastIPv4, config.DefaultMulticastIPv6}, c.Groups)
	assert.Equal(t, 1, c.TTL)

	groups, err := c.ParseGroups()
	require.NoError(t, err)
	assert.Equal(t, "udp", c.replyNetwork(groups))
}

// TestLookupProxy_ReplyAddr 测试通配应答主机替换为接口地址
func TestLookupProxy_ReplyAddr(t *testing.T) {
	g, err := ParseGroup(config.DefaultMulticastIPv4)
	require.NoError(t, err)

	p := NewLookupProxy(Interface{IPv4: net.ParseIP("192.168.1.10")}, g, 1)
	assert.Equal(t, "192.168.1.10:5000", p.replyAddr(":5000"))
	assert.Equal(t, "192.168.1.10:5000", p.replyAddr("0.0.0.0:5000"))
	assert.Equal(t, "10.0.0.1:5000", p.replyAddr("10.0.0.1:5000"))

	noIP := NewLookupProxy(Interface{}, g, 1)
	assert.Equal(t, ":5000", noIP.replyAddr(":5000"))
}

// TestLookupProxy_NotStarted 测试未启动时发送失败
func TestLookupProxy_NotStarted(t *testing.T) {
	g, err := ParseGroup(config.DefaultMulticastIPv4)
	require.NoError(t, err)
	p := NewLookupProxy(Interface{}, g, 1)

	ep := newTestEndpoint(t)
	err = p.Query(context.Background(), &interfaces.Query{Kind: types.QueryFindAdapterByID, ReplyTo: ep})
	assert.ErrorIs(t, err, ErrNotStarted)

	err = p.Query(context.Background(), &interfaces.Query{Kind: types.QueryFindAdapterByID})
	assert.ErrorIs(t, err, ErrNoReplyTarget)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Start(), ErrClosed)
}

func newTestEndpoint(t *testing.T) *ReplyEndpoint {
	t.Helper()
	ep, err := NewReplyEndpoint(Config{
		Groups:    []string{config.DefaultMulticastIPv4},
		ReplyHost: "127.0.0.1",
	})
	require.NoError(t, err)
	return ep
}

// TestReplyEndpoint_Table 测试分发表注册与注销
func TestReplyEndpoint_Table(t *testing.T) {
	ep := newTestEndpoint(t)

	got := make(chan *types.Reply, 1)
	require.NoError(t, ep.Register("r1", interfaces.ReplyHandlerFunc(func(r *types.Reply) { got <- r })))
	assert.ErrorIs(t, ep.Register("r1", interfaces.ReplyHandlerFunc(func(*types.Reply) {})), ErrDuplicateReplyID)
	assert.Equal(t, 1, ep.Len())

	reply := types.NewWellKnownFound("A")
	reply.ReplyID = "r1"
	require.NoError(t, ep.Deliver(context.Background(), reply))
	assert.Same(t, reply, <-got)

	dropped := 0
	ep.SetDropHook(func(*types.Reply) { dropped++ })
	other := types.NewWellKnownFound("A")
	other.ReplyID = "unknown"
	require.NoError(t, ep.Deliver(context.Background(), other))
	assert.Equal(t, 1, dropped)

	ep.Unregister("r1")
	ep.Unregister("r1")
	assert.Equal(t, 0, ep.Len())
}

// TestReplyEndpoint_UDP 测试经 UDP 单播收到应答
func TestReplyEndpoint_UDP(t *testing.T) {
	ep := newTestEndpoint(t)
	require.NoError(t, ep.Start())
	defer ep.Close()

	host, _, err := net.SplitHostPort(ep.Addr())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)

	got := make(chan *types.Reply, 1)
	require.NoError(t, ep.Register("r1", interfaces.ReplyHandlerFunc(func(r *types.Reply) { got <- r })))

	sender, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer sender.Close()

	target, err := NewUDPReplyTarget(sender, ep.Addr())
	require.NoError(t, err)

	reply := types.NewLocationFound([]types.Endpoint{types.MustParseEndpoint("tcp:10.0.0.1:5000")}, true)
	reply.ReplyID = "r1"
	require.NoError(t, target.Deliver(context.Background(), reply))

	select {
	case r := <-got:
		assert.Equal(t, types.ReplyLocationFound, r.Kind)
		assert.True(t, r.IsReplicaGroup)
		assert.Equal(t, reply.Endpoints, r.Endpoints)
	case <-time.After(2 * time.Second):
		t.Fatal("应答未到达")
	}
}

// TestUDPReplyTarget_SourceFallback 测试通配应答主机回退到源地址
func TestUDPReplyTarget_SourceFallback(t *testing.T) {
	src := &net.UDPAddr{IP: net.ParseIP("192.168.1.20"), Port: 4061}

	target, err := newUDPReplyTarget(nil, ":5000", src)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20:5000", target.Addr())

	target, err = newUDPReplyTarget(nil, "10.0.0.1:5000", src)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:5000", target.Addr())

	_, err = newUDPReplyTarget(nil, "nonsense", src)
	assert.Error(t, err)
}

// recordingLookup 记录收到的查询并应答
type recordingLookup struct {
	queries chan *interfaces.Query
}

func (l *recordingLookup) Query(ctx context.Context, q *interfaces.Query) error {
	l.queries <- q
	return q.ReplyTo.Deliver(ctx, &types.Reply{
		Kind:      types.ReplyWellKnownFound,
		ReplyID:   q.ReplyID,
		AdapterID: "A",
	})
}

// TestMulticast_RoundTrip 测试组播请求与单播应答的完整往返
func TestMulticast_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过组播测试")
	}

	cfg := Config{Groups: []string{"239.255.0.77:24061"}, TTL: 1}

	handler := &recordingLookup{queries: make(chan *interfaces.Query, 8)}
	listeners, err := NewMulticastListeners(cfg, handler)
	require.NoError(t, err)
	for _, l := range listeners {
		if err := l.Start(); err != nil {
			t.Skipf("环境不支持组播: %v", err)
		}
		defer l.Close()
	}

	ep, err := NewReplyEndpoint(cfg)
	require.NoError(t, err)
	require.NoError(t, ep.Start())
	defer ep.Close()

	proxies, err := NewLookupProxies(cfg)
	require.NoError(t, err)
	for _, p := range proxies {
		require.NoError(t, p.Start())
		defer p.Close()
	}

	got := make(chan *types.Reply, len(proxies))
	require.NoError(t, ep.Register("rt", interfaces.ReplyHandlerFunc(func(r *types.Reply) { got <- r })))

	q := &interfaces.Query{
		Kind:     types.QueryResolveWellKnownProxy,
		DomainID: "test",
		Identity: types.Identity{Name: "obj"},
		ReplyID:  "rt",
		ReplyTo:  ep,
	}
	for _, p := range proxies {
		_ = p.Query(context.Background(), q)
	}

	select {
	case r := <-got:
		assert.Equal(t, "A", r.AdapterID)
		recv := <-handler.queries
		assert.Equal(t, "test", recv.DomainID)
		assert.Equal(t, types.Identity{Name: "obj"}, recv.Identity)
	case <-time.After(2 * time.Second):
		t.Skip("环境中组播数据报未回环")
	}
}

// slowFirstLookup 第一个查询阻塞 delay，之后的查询立即返回
type slowFirstLookup struct {
	delay   time.Duration
	calls   atomic.Int32
	handled chan string
}

func (l *slowFirstLookup) Query(ctx context.Context, q *interfaces.Query) error {
	if l.calls.Add(1) == 1 {
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	l.handled <- q.ReplyID
	return nil
}

// TestMulticastListener_ConcurrentRequests 测试慢请求不阻塞后续请求
func TestMulticastListener_ConcurrentRequests(t *testing.T) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)

	handler := &slowFirstLookup{delay: 800 * time.Millisecond, handled: make(chan string, 2)}
	l := &MulticastListener{handler: handler}
	ctx, cancel := context.WithCancel(context.Background())
	l.wg.Add(1)
	go l.serve(ctx, conn)
	defer func() {
		cancel()
		conn.Close()
		l.wg.Wait()
	}()

	sender, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer sender.Close()

	send := func(replyID string) {
		b, err := wire.EncodeRequest(&wire.Request{
			Kind:      types.QueryFindAdapterByID,
			DomainID:  "test",
			AdapterID: "A",
			ReplyID:   replyID,
			ReplyAddr: "127.0.0.1:9",
		})
		require.NoError(t, err)
		_, err = sender.WriteTo(b, conn.LocalAddr())
		require.NoError(t, err)
	}

	start := time.Now()
	send("slow")
	time.Sleep(20 * time.Millisecond)
	send("fast")

	select {
	case id := <-handler.handled:
		assert.Equal(t, "fast", id)
		assert.Less(t, time.Since(start), 400*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("第二个请求未被处理")
	}

	select {
	case id := <-handler.handled:
		assert.Equal(t, "slow", id)
	case <-time.After(2 * time.Second):
		t.Fatal("第一个请求未被处理")
	}
}
