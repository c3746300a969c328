// Package responder 实现发现协议的应答方
//
// Responder 绑定到组播监听（经 transport.MulticastListener）：
// 先比对请求的发现域，不匹配的请求静默忽略；匹配时查询本地 Registry，
// 有结果才向请求方单播应答。应答发送失败只记录日志。
//
// Responder 同时实现 interfaces.Lookup，可作为同进程短路查询
// 直接加入 Requester 的 Lookup 集合。
package responder

import (
	"context"
	"errors"

	"github.com/dep2p/go-locator/internal/core/metrics"
	"github.com/dep2p/go-locator/internal/core/registry"
	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/lib/log"
	"github.com/dep2p/go-locator/pkg/types"
)

var logger = log.Logger("discovery/responder")

// 确保实现了接口
var _ interfaces.Lookup = (*Responder)(nil)

// ErrNoReplyTarget 请求缺少应答目标
var ErrNoReplyTarget = errors.New("responder: query has no reply target")

// Responder 发现应答方
type Responder struct {
	domainID string
	registry *registry.Registry
	reporter metrics.Reporter
}

// New 创建 Responder
func New(domainID string, reg *registry.Registry, rep metrics.Reporter) *Responder {
	if rep == nil {
		rep = metrics.Nop{}
	}
	return &Responder{domainID: domainID, registry: reg, reporter: rep}
}

// DomainID 返回发现域
func (r *Responder) DomainID() string {
	return r.domainID
}

// Query 实现 interfaces.Lookup
//
// 找不到或发现域不匹配时不应答，也不返回错误。
func (r *Responder) Query(ctx context.Context, q *interfaces.Query) error {
	if q.ReplyTo == nil {
		return ErrNoReplyTarget
	}

	if q.DomainID != r.domainID {
		logger.Debug("忽略其他发现域的请求",
			"kind", q.Kind.String(),
			"domain", q.DomainID,
			"ours", r.domainID)
		r.reporter.RequestServed(q.Kind, false)
		return nil
	}

	reply := r.answer(ctx, q)
	if reply == nil {
		r.reporter.RequestServed(q.Kind, false)
		return nil
	}
	reply.ReplyID = q.ReplyID

	if err := q.ReplyTo.Deliver(ctx, reply); err != nil {
		logger.Warn("发送应答失败",
			"kind", reply.Kind.String(),
			"to", q.ReplyTo.Addr(),
			"replyID", log.TruncateID(q.ReplyID, 8),
			"error", err)
	}
	r.reporter.RequestServed(q.Kind, true)
	return nil
}

// answer 查询本地 Registry，未找到返回 nil
func (r *Responder) answer(ctx context.Context, q *interfaces.Query) *types.Reply {
	switch q.Kind {
	case types.QueryFindAdapterByID:
		eps, isGroup, ok := r.registry.FindAdapter(q.AdapterID)
		if !ok || len(eps) == 0 {
			return nil
		}
		proxy := &types.Proxy{AdapterID: q.AdapterID, Endpoints: eps}
		return types.NewAdapterFound(q.AdapterID, proxy, isGroup)

	case types.QueryResolveAdapterID:
		eps, isGroup, ok := r.registry.FindAdapter(q.AdapterID)
		if !ok || len(eps) == 0 {
			return nil
		}
		return types.NewLocationFound(eps, isGroup)

	case types.QueryFindObjectByID:
		proxy, ok := r.registry.FindObject(ctx, q.Identity)
		if !ok {
			return nil
		}
		return types.NewObjectFound(q.Identity, proxy.WithFacet(q.Facet))

	case types.QueryResolveWellKnownProxy:
		proxy, ok := r.registry.FindObject(ctx, q.Identity)
		if !ok || proxy.AdapterID == "" {
			return nil
		}
		return types.NewWellKnownFound(proxy.AdapterID)

	default:
		logger.Debug("忽略未知种类的请求", "kind", uint8(q.Kind))
		return nil
	}
}
