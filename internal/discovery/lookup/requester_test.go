package lookup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/internal/core/transport"
	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

type delayed struct {
	after time.Duration
	reply *types.Reply
}

// fakeLookup 按脚本异步应答的 Lookup
type fakeLookup struct {
	mu      sync.Mutex
	calls   int
	last    *interfaces.Query
	err     error
	respond func(q *interfaces.Query) []delayed
}

func (f *fakeLookup) Query(_ context.Context, q *interfaces.Query) error {
	f.mu.Lock()
	f.calls++
	cp := *q
	f.last = &cp
	f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	if f.respond == nil {
		return nil
	}
	for _, d := range f.respond(q) {
		rep := *d.reply
		rep.ReplyID = q.ReplyID
		target := q.ReplyTo
		time.AfterFunc(d.after, func() {
			_ = target.Deliver(context.Background(), &rep)
		})
	}
	return nil
}

func (f *fakeLookup) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func always(ds ...delayed) func(*interfaces.Query) []delayed {
	return func(*interfaces.Query) []delayed { return ds }
}

func newEndpoint(t *testing.T) *transport.ReplyEndpoint {
	t.Helper()
	ep, err := transport.NewReplyEndpoint(transport.DefaultConfig())
	require.NoError(t, err)
	return ep
}

func newRequester(t *testing.T, cfg Config, ep interfaces.ReplyEndpoint, lookups ...interfaces.Lookup) *Requester {
	t.Helper()
	r, err := New(cfg, lookups, ep)
	require.NoError(t, err)
	return r
}

func testConfig(timeout time.Duration) Config {
	return Config{
		DomainID:          "test",
		Timeout:           timeout,
		RetryCount:        3,
		LatencyMultiplier: 1,
	}
}

func adapterReply(isGroup bool, eps ...string) *types.Reply {
	p := &types.Proxy{AdapterID: "A"}
	for _, s := range eps {
		p.Endpoints = append(p.Endpoints, types.MustParseEndpoint(s))
	}
	return types.NewAdapterFound("A", p, isGroup)
}

var adapterQuery = interfaces.Query{Kind: types.QueryFindAdapterByID, AdapterID: "A"}

// ============================================================================
//                              测试用例
// ============================================================================

// TestRequester_SingleReplyCompletesEarly 测试单一应答立即完成
func TestRequester_SingleReplyCompletesEarly(t *testing.T) {
	ep := newEndpoint(t)
	l := &fakeLookup{respond: always(delayed{10 * time.Millisecond, adapterReply(false, "tcp:10.0.0.1:5000")})}
	r := newRequester(t, testConfig(2*time.Second), ep, l)

	start := time.Now()
	reply, err := r.Invoke(context.Background(), adapterQuery)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "tcp:10.0.0.1:5000", reply.Proxy.Endpoints[0].String())
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, 1, l.Calls())
	assert.Equal(t, 0, ep.Len())
}

// TestRequester_QueryFields 测试发送的查询携带发现域与应答身份
func TestRequester_QueryFields(t *testing.T) {
	ep := newEndpoint(t)
	l := &fakeLookup{respond: always(delayed{0, adapterReply(false, "tcp:h:1")})}
	r := newRequester(t, testConfig(time.Second), ep, l)

	_, err := r.Invoke(context.Background(), interfaces.Query{Kind: types.QueryFindAdapterByID, AdapterID: "A", DomainID: "ignored"})
	require.NoError(t, err)

	l.mu.Lock()
	q := l.last
	l.mu.Unlock()
	assert.Equal(t, "test", q.DomainID)
	assert.Equal(t, "A", q.AdapterID)
	_, err = uuid.Parse(q.ReplyID)
	assert.NoError(t, err)
	assert.Same(t, ep, q.ReplyTo)
}

// TestRequester_NoReplyExhaustsAttempts 测试无应答时用尽尝试后返回空结果
func TestRequester_NoReplyExhaustsAttempts(t *testing.T) {
	ep := newEndpoint(t)
	l := &fakeLookup{}
	r := newRequester(t, testConfig(50*time.Millisecond), ep, l)

	start := time.Now()
	reply, err := r.Invoke(context.Background(), adapterQuery)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Nil(t, reply)
	assert.Equal(t, 3, l.Calls())
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, 0, ep.Len())
}

// TestRequester_AllSendsFail 测试全部发送失败时立即返回空结果
func TestRequester_AllSendsFail(t *testing.T) {
	ep := newEndpoint(t)
	l1 := &fakeLookup{err: errors.New("network unreachable")}
	l2 := &fakeLookup{err: errors.New("no route")}
	r := newRequester(t, testConfig(time.Second), ep, l1, l2)

	start := time.Now()
	reply, err := r.Invoke(context.Background(), adapterQuery)

	require.NoError(t, err)
	assert.Nil(t, reply)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 1, l1.Calls())
	assert.Equal(t, 1, l2.Calls())
	assert.Equal(t, 0, ep.Len())
}

// TestRequester_NoLookups 测试没有 Lookup 时返回空结果
func TestRequester_NoLookups(t *testing.T) {
	ep := newEndpoint(t)
	r := newRequester(t, testConfig(time.Second), ep)

	reply, err := r.Invoke(context.Background(), adapterQuery)
	require.NoError(t, err)
	assert.Nil(t, reply)
}

// TestRequester_PartialSendFailure 测试部分接口失败时仍可收到应答
func TestRequester_PartialSendFailure(t *testing.T) {
	ep := newEndpoint(t)
	bad := &fakeLookup{err: errors.New("down")}
	good := &fakeLookup{respond: always(delayed{5 * time.Millisecond, adapterReply(false, "tcp:h:1")})}
	r := newRequester(t, testConfig(time.Second), ep, bad, good)

	reply, err := r.Invoke(context.Background(), adapterQuery)
	require.NoError(t, err)
	assert.NotNil(t, reply)
}

// TestRequester_ReplicaAggregation 测试副本组应答在窗口内合并，窗口外丢弃
func TestRequester_ReplicaAggregation(t *testing.T) {
	ep := newEndpoint(t)
	dropped := int32(0)
	ep.SetDropHook(func(*types.Reply) { atomic.AddInt32(&dropped, 1) })

	l := &fakeLookup{respond: always(
		delayed{20 * time.Millisecond, adapterReply(true, "tcp:10.0.0.1:5000")},
		delayed{30 * time.Millisecond, adapterReply(true, "tcp:10.0.0.2:5000", "tcp:10.0.0.1:5000")},
		delayed{600 * time.Millisecond, adapterReply(true, "tcp:10.0.0.3:5000")},
	)}
	cfg := testConfig(2 * time.Second)
	cfg.LatencyMultiplier = 5
	r := newRequester(t, cfg, ep, l)

	start := time.Now()
	reply, err := r.Invoke(context.Background(), adapterQuery)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.True(t, reply.IsReplicaGroup)
	assert.Equal(t, []string{"tcp:10.0.0.1:5000", "tcp:10.0.0.2:5000"}, types.EndpointStrings(reply.Proxy.Endpoints))
	assert.Less(t, elapsed, 600*time.Millisecond)
	assert.Equal(t, 0, ep.Len())

	// 窗口之后到达的副本应答无人认领
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&dropped) >= 1 }, 2*time.Second, 10*time.Millisecond)
}

// TestRequester_LocationReplicaAggregation 测试位置解析的副本聚合
func TestRequester_LocationReplicaAggregation(t *testing.T) {
	ep := newEndpoint(t)
	l1 := &fakeLookup{respond: always(delayed{10 * time.Millisecond,
		types.NewLocationFound([]types.Endpoint{types.MustParseEndpoint("udp:a:1")}, true)})}
	l2 := &fakeLookup{respond: always(delayed{15 * time.Millisecond,
		types.NewLocationFound([]types.Endpoint{types.MustParseEndpoint("udp:b:1")}, true)})}
	cfg := testConfig(2 * time.Second)
	cfg.LatencyMultiplier = 10
	r := newRequester(t, cfg, ep, l1, l2)

	reply, err := r.Invoke(context.Background(), interfaces.Query{Kind: types.QueryResolveAdapterID, AdapterID: "G"})
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.ElementsMatch(t, []string{"udp:a:1", "udp:b:1"}, types.EndpointStrings(reply.Endpoints))
}

// TestRequester_SingleWinsOverReplica 测试聚合窗口内到达的单一应答胜出
func TestRequester_SingleWinsOverReplica(t *testing.T) {
	ep := newEndpoint(t)
	l := &fakeLookup{respond: always(
		delayed{10 * time.Millisecond, adapterReply(true, "tcp:10.0.0.1:5000")},
		delayed{20 * time.Millisecond, adapterReply(false, "tcp:10.0.0.9:5000")},
	)}
	cfg := testConfig(2 * time.Second)
	cfg.LatencyMultiplier = 20
	r := newRequester(t, cfg, ep, l)

	reply, err := r.Invoke(context.Background(), adapterQuery)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.False(t, reply.IsReplicaGroup)
	assert.Equal(t, "tcp:10.0.0.9:5000", reply.Proxy.Endpoints[0].String())
}

// TestRequester_UnqualifiedRepliesIgnored 测试种类不匹配或无载荷的应答被忽略
func TestRequester_UnqualifiedRepliesIgnored(t *testing.T) {
	ep := newEndpoint(t)
	l := &fakeLookup{respond: always(
		delayed{0, types.NewObjectFound(types.Identity{Name: "x"}, &types.Proxy{AdapterID: "A"})},
		delayed{0, types.NewAdapterFound("A", nil, false)},
	)}
	cfg := testConfig(30 * time.Millisecond)
	cfg.RetryCount = 2
	r := newRequester(t, cfg, ep, l)

	reply, err := r.Invoke(context.Background(), adapterQuery)
	require.NoError(t, err)
	assert.Nil(t, reply)
	assert.Equal(t, 2, l.Calls())
}

// TestRequester_ContextCanceled 测试调用方取消中止等待并清理应答身份
func TestRequester_ContextCanceled(t *testing.T) {
	ep := newEndpoint(t)
	l := &fakeLookup{}
	r := newRequester(t, testConfig(time.Second), ep, l)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	reply, err := r.Invoke(ctx, adapterQuery)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, reply)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 0, ep.Len())
}

// TestRequester_InvalidMultiplier 测试延迟倍数小于 1 时构造失败
func TestRequester_InvalidMultiplier(t *testing.T) {
	cfg := testConfig(time.Second)
	cfg.LatencyMultiplier = 0

	_, err := New(cfg, nil, newEndpoint(t))
	require.Error(t, err)

	var cfgErr *config.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

// TestRequester_InfiniteTimeoutCoerced 测试无限超时被强制为默认值
func TestRequester_InfiniteTimeoutCoerced(t *testing.T) {
	cfg := testConfig(0)
	cfg.RetryCount = 0

	r, err := New(cfg, nil, newEndpoint(t))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTimeout, r.Config().Timeout)
	assert.Equal(t, config.DefaultRetryCount, r.Config().RetryCount)
}

// TestRequester_InvalidKind 测试未知查询种类
func TestRequester_InvalidKind(t *testing.T) {
	r := newRequester(t, testConfig(time.Second), newEndpoint(t))
	_, err := r.Invoke(context.Background(), interfaces.Query{})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

// TestRequester_ConcurrentQueriesNoLeak 测试并发查询互不干扰且不泄漏应答身份
func TestRequester_ConcurrentQueriesNoLeak(t *testing.T) {
	ep := newEndpoint(t)
	l := &fakeLookup{respond: func(q *interfaces.Query) []delayed {
		return []delayed{{5 * time.Millisecond, types.NewWellKnownFound("adapter-" + q.Identity.Name)}}
	}}
	r := newRequester(t, testConfig(time.Second), ep, l)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("obj%d", i)
			reply, err := r.Invoke(context.Background(), interfaces.Query{
				Kind:     types.QueryResolveWellKnownProxy,
				Identity: types.Identity{Name: name},
			})
			if err != nil {
				errs <- err
				return
			}
			if reply == nil || reply.AdapterID != "adapter-"+name {
				errs <- fmt.Errorf("query %s: unexpected reply %+v", name, reply)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, 0, ep.Len())
}

// ============================================================================
//                              模拟时钟
// ============================================================================

// timerClock 在创建计时器时报告时长
type timerClock struct {
	*clock.Mock
	timers chan time.Duration
}

func newTimerClock() *timerClock {
	return &timerClock{Mock: clock.NewMock(), timers: make(chan time.Duration, 8)}
}

func (c *timerClock) Timer(d time.Duration) *clock.Timer {
	c.timers <- d
	return c.Mock.Timer(d)
}

func (c *timerClock) nextTimer(t *testing.T) time.Duration {
	t.Helper()
	select {
	case d := <-c.timers:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("未创建计时器")
		return 0
	}
}

// sentLookup 记录发送的查询，不应答
type sentLookup struct {
	sent chan *interfaces.Query
}

func (l *sentLookup) Query(_ context.Context, q *interfaces.Query) error {
	l.sent <- q
	return nil
}

type invokeResult struct {
	reply *types.Reply
	err   error
}

func invokeAsync(r *Requester, q interfaces.Query) <-chan invokeResult {
	out := make(chan invokeResult, 1)
	go func() {
		reply, err := r.Invoke(context.Background(), q)
		out <- invokeResult{reply, err}
	}()
	return out
}

// TestRequester_AggregationWindowMockClock 测试聚合窗口等于首个应答延迟乘以倍数
func TestRequester_AggregationWindowMockClock(t *testing.T) {
	ep := newEndpoint(t)
	dropped := int32(0)
	ep.SetDropHook(func(*types.Reply) { atomic.AddInt32(&dropped, 1) })

	clk := newTimerClock()
	l := &sentLookup{sent: make(chan *interfaces.Query, 1)}
	cfg := testConfig(time.Second)
	cfg.LatencyMultiplier = 3
	r, err := New(cfg, []interfaces.Lookup{l}, ep, WithClock(clk))
	require.NoError(t, err)

	done := invokeAsync(r, adapterQuery)
	q := <-l.sent
	assert.Equal(t, time.Second, clk.nextTimer(t))

	deliver := func(eps ...string) {
		rep := adapterReply(true, eps...)
		rep.ReplyID = q.ReplyID
		require.NoError(t, ep.Deliver(context.Background(), rep))
	}

	clk.Add(40 * time.Millisecond)
	deliver("tcp:10.0.0.1:5000")
	assert.Equal(t, 120*time.Millisecond, clk.nextTimer(t))

	// 窗口结束前到达的副本应答被合并
	clk.Add(119 * time.Millisecond)
	deliver("tcp:10.0.0.2:5000")
	select {
	case <-done:
		t.Fatal("聚合窗口提前结束")
	default:
	}

	clk.Add(time.Millisecond)
	var res invokeResult
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("聚合窗口未结束")
	}
	require.NoError(t, res.err)
	require.NotNil(t, res.reply)
	assert.Equal(t, []string{"tcp:10.0.0.1:5000", "tcp:10.0.0.2:5000"}, types.EndpointStrings(res.reply.Proxy.Endpoints))

	// 窗口之后到达的应答被丢弃
	deliver("tcp:10.0.0.3:5000")
	assert.Equal(t, int32(1), atomic.LoadInt32(&dropped))
}

// TestRequester_AttemptBoundMockClock 测试无应答时总耗时为尝试次数乘以超时
func TestRequester_AttemptBoundMockClock(t *testing.T) {
	ep := newEndpoint(t)
	clk := newTimerClock()
	l := &sentLookup{sent: make(chan *interfaces.Query, 3)}
	r, err := New(testConfig(100*time.Millisecond), []interfaces.Lookup{l}, ep, WithClock(clk))
	require.NoError(t, err)

	begin := clk.Now()
	done := invokeAsync(r, adapterQuery)
	for i := 0; i < 3; i++ {
		<-l.sent
		clk.Add(clk.nextTimer(t))
	}

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Nil(t, res.reply)
	case <-time.After(2 * time.Second):
		t.Fatal("查询未结束")
	}
	assert.Equal(t, 300*time.Millisecond, clk.Now().Sub(begin))
	assert.Len(t, l.sent, 0)
}
