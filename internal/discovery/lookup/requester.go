package lookup

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-locator/internal/core/metrics"
	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/lib/log"
	"github.com/dep2p/go-locator/pkg/types"
)

var logger = log.Logger("discovery/lookup")

// minAggregationWindow 副本聚合等待下限
const minAggregationWindow = time.Millisecond

// 预定义错误
var (
	// ErrNoLookups 没有可用的 Lookup
	ErrNoLookups = errors.New("lookup: no lookups configured")

	// ErrInvalidQuery 查询种类未知
	ErrInvalidQuery = errors.New("lookup: invalid query kind")
)

// Requester 发现查询请求方
//
// 向每个 Lookup 扇出查询，并通过 ReplyEndpoint 关联应答。
// 多个 Invoke 可以并发执行，互不加锁。
type Requester struct {
	cfg      Config
	lookups  []interfaces.Lookup
	replies  interfaces.ReplyEndpoint
	clock    clock.Clock
	reporter metrics.Reporter
}

// Option Requester 选项
type Option func(*Requester)

// WithClock 设置时间源
func WithClock(c clock.Clock) Option {
	return func(r *Requester) {
		r.clock = c
	}
}

// WithReporter 设置指标记录
func WithReporter(rep metrics.Reporter) Option {
	return func(r *Requester) {
		if rep != nil {
			r.reporter = rep
		}
	}
}

// New 创建 Requester
//
// LatencyMultiplier < 1 时返回 *config.ConfigError。
func New(cfg Config, lookups []interfaces.Lookup, replies interfaces.ReplyEndpoint, opts ...Option) (*Requester, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	if replies == nil {
		return nil, errors.New("lookup: reply endpoint is required")
	}

	r := &Requester{
		cfg:      cfg,
		lookups:  lookups,
		replies:  replies,
		clock:    clock.New(),
		reporter: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config 返回生效的配置
func (r *Requester) Config() Config {
	return r.cfg
}

// Invoke 执行一次查询
//
// 返回值：
//   - 找到：(reply, nil)
//   - 没有应答或全部发送失败：(nil, nil)
//   - 调用方取消：(nil, ctx.Err())
func (r *Requester) Invoke(ctx context.Context, q interfaces.Query) (*types.Reply, error) {
	if !q.Kind.Valid() {
		return nil, ErrInvalidQuery
	}

	begin := r.clock.Now()
	id := uuid.NewString()

	req := newRequest(id, q.Kind.ReplyKind(), begin)
	req.onAccept = r.reporter.ReplyReceived
	req.onDrop = r.reporter.ReplyDropped

	if err := r.replies.Register(id, req); err != nil {
		return nil, err
	}
	r.reporter.OutstandingAdd(1)
	defer func() {
		r.replies.Unregister(id)
		r.reporter.OutstandingAdd(-1)
	}()

	q.DomainID = r.cfg.DomainID
	q.ReplyID = id
	q.ReplyTo = r.replies

	reply, outcome, err := r.run(ctx, req, &q)
	r.reporter.LookupCompleted(q.Kind, outcome, r.clock.Since(begin))

	logger.Debug("查询完成",
		"kind", q.Kind.String(),
		"replyID", log.TruncateID(id, 8),
		"outcome", string(outcome),
		"elapsed", r.clock.Since(begin))
	return reply, err
}

// run 尝试循环
func (r *Requester) run(ctx context.Context, req *request, q *interfaces.Query) (*types.Reply, metrics.Outcome, error) {
	defer req.cancel()

	for attempt := 1; attempt <= r.cfg.RetryCount; attempt++ {
		start := r.clock.Now()

		if err := r.send(ctx, q); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, metrics.OutcomeCanceled, ctxErr
			}
			logger.Warn("所有接口发送失败，放弃查询",
				"kind", q.Kind.String(),
				"attempt", attempt,
				"error", err)
			return nil, metrics.OutcomeSendFailed, nil
		}

		timer := r.clock.Timer(r.cfg.Timeout)
		select {
		case <-req.done:
			timer.Stop()
			return req.finish(), metrics.OutcomeFound, nil

		case <-req.first:
			// 取消本次超时，进入副本聚合
			timer.Stop()
			return r.aggregate(ctx, req, start)

		case <-timer.C:
			logger.Debug("尝试超时",
				"kind", q.Kind.String(),
				"attempt", attempt,
				"timeout", r.cfg.Timeout)

		case <-ctx.Done():
			timer.Stop()
			return nil, metrics.OutcomeCanceled, ctx.Err()
		}
	}
	return nil, metrics.OutcomeEmpty, nil
}

// aggregate 等待同组副本的应答并合并
func (r *Requester) aggregate(ctx context.Context, req *request, start time.Time) (*types.Reply, metrics.Outcome, error) {
	window := r.clock.Since(start) * time.Duration(r.cfg.LatencyMultiplier)
	if window < minAggregationWindow {
		window = minAggregationWindow
	}

	timer := r.clock.Timer(window)
	select {
	case <-req.done:
		timer.Stop()
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		return nil, metrics.OutcomeCanceled, ctx.Err()
	}
	return req.finish(), metrics.OutcomeFound, nil
}

// send 并发向所有 Lookup 发送
//
// 只有全部失败时返回错误；部分失败只记录日志。
func (r *Requester) send(ctx context.Context, q *interfaces.Query) error {
	if len(r.lookups) == 0 {
		return ErrNoLookups
	}

	errs := make([]error, len(r.lookups))
	var g errgroup.Group
	for i, l := range r.lookups {
		g.Go(func() error {
			errs[i] = l.Query(ctx, q)
			return nil
		})
	}
	_ = g.Wait()

	var combined error
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			combined = multierr.Append(combined, err)
			r.reporter.SendFailed()
		}
	}
	if failed == len(r.lookups) {
		return combined
	}
	if combined != nil {
		logger.Debug("部分接口发送失败", "failed", failed, "total", len(r.lookups), "error", combined)
	}
	return nil
}
