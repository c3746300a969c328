package interfaces

import (
	"context"

	"github.com/dep2p/go-locator/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
// Query 组播查询
// ════════════════════════════════════════════════════════════════════════════

// Query 一次发往 Lookup 的查询请求
//
// ReplyID 是请求方为本次查询生成的临时应答身份，
// Responder 在应答中原样带回，用于在同一应答端点上区分并发查询。
type Query struct {
	Kind types.QueryKind

	// DomainID 发现域，Responder 据此过滤
	DomainID string

	// AdapterID FindAdapterById / ResolveAdapterId 的目标
	AdapterID string

	// Identity、Facet FindObjectById / ResolveWellKnownProxy 的目标
	Identity types.Identity
	Facet    string

	// ReplyID 临时应答身份
	ReplyID string

	// ReplyTo 应答目标
	ReplyTo ReplyTarget
}

// ════════════════════════════════════════════════════════════════════════════
// Lookup 查询能力
// ════════════════════════════════════════════════════════════════════════════

// Lookup 目录查询能力
//
// 实现：
//   - transport.LookupProxy：经某个本地接口组播发送
//   - responder.Responder：同进程直接查询本地 Registry
//
// Query 只负责发出请求，应答异步投递到 q.ReplyTo。
type Lookup interface {
	Query(ctx context.Context, q *Query) error
}

// ════════════════════════════════════════════════════════════════════════════
// 应答路径
// ════════════════════════════════════════════════════════════════════════════

// ReplyTarget 应答目标
type ReplyTarget interface {
	// Deliver 投递一个应答（reply.ReplyID 已由 Responder 设置）
	Deliver(ctx context.Context, reply *types.Reply) error

	// Addr 单播应答地址 "host:port"，编码进组播请求
	Addr() string
}

// ReplyHandler 应答处理者（每个未完成查询一个）
type ReplyHandler interface {
	HandleReply(reply *types.Reply)
}

// ReplyHandlerFunc 函数形式的 ReplyHandler
type ReplyHandlerFunc func(reply *types.Reply)

// HandleReply 实现 ReplyHandler
func (f ReplyHandlerFunc) HandleReply(reply *types.Reply) {
	f(reply)
}

// ReplyEndpoint 本地应答端点
//
// 维护 应答身份 → 处理者 的分发表；每个查询完成时必须 Unregister，
// Len 用于确认分发表没有泄漏。
type ReplyEndpoint interface {
	ReplyTarget

	Register(replyID string, h ReplyHandler) error
	Unregister(replyID string)
	Len() int
}
