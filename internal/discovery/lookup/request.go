package lookup

import (
	"sync"
	"time"

	"github.com/dep2p/go-locator/pkg/lib/log"
	"github.com/dep2p/go-locator/pkg/types"
)

// request 一次未完成查询的关联状态
//
// done 在单一结果到达时关闭，first 在首个副本应答到达时关闭；
// completed 置位后到达的应答一律丢弃。
type request struct {
	id      string
	want    types.ReplyKind
	created time.Time

	mu        sync.Mutex
	completed bool
	result    *types.Reply
	replicas  []*types.Reply
	firstSeen bool

	first chan struct{}
	done  chan struct{}

	onAccept func(kind types.ReplyKind)
	onDrop   func()
}

func newRequest(id string, want types.ReplyKind, now time.Time) *request {
	return &request{
		id:      id,
		want:    want,
		created: now,
		first:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// qualifies 应答种类匹配且携带有效载荷
func (r *request) qualifies(reply *types.Reply) bool {
	return reply.Kind == r.want && reply.HasPayload()
}

// isReplica 只有适配器与位置应答可能来自副本组
func isReplica(reply *types.Reply) bool {
	switch reply.Kind {
	case types.ReplyAdapterFound, types.ReplyLocationFound:
		return reply.IsReplicaGroup
	default:
		return false
	}
}

// HandleReply 实现 interfaces.ReplyHandler
func (r *request) HandleReply(reply *types.Reply) {
	if !r.qualifies(reply) {
		logger.Debug("丢弃不合格的应答",
			"replyID", log.TruncateID(r.id, 8),
			"want", r.want.String(),
			"got", reply.Kind.String())
		r.drop()
		return
	}

	r.mu.Lock()
	if r.completed {
		r.mu.Unlock()
		r.drop()
		return
	}

	if !isReplica(reply) {
		// 单一结果优先于任何副本应答
		r.result = reply
		r.completed = true
		close(r.done)
		r.mu.Unlock()
		r.accept(reply.Kind)
		return
	}

	r.replicas = append(r.replicas, reply)
	if !r.firstSeen {
		r.firstSeen = true
		close(r.first)
	}
	r.mu.Unlock()
	r.accept(reply.Kind)
}

// finish 结束聚合窗口并返回合并结果
//
// 窗口期间若已有单一结果胜出，返回该结果。
func (r *request) finish() *types.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.completed {
		return r.result
	}
	r.completed = true

	if len(r.replicas) == 0 {
		return nil
	}
	sets := make([][]types.Endpoint, len(r.replicas))
	for i, rep := range r.replicas {
		sets[i] = rep.ReplicaEndpoints()
	}
	r.result = r.replicas[0].WithEndpoints(types.MergeEndpoints(sets...))
	r.replicas = nil
	return r.result
}

// cancel 标记完成，之后的应答全部丢弃
func (r *request) cancel() {
	r.mu.Lock()
	r.completed = true
	r.replicas = nil
	r.mu.Unlock()
}

func (r *request) accept(kind types.ReplyKind) {
	if r.onAccept != nil {
		r.onAccept(kind)
	}
}

func (r *request) drop() {
	if r.onDrop != nil {
		r.onDrop()
	}
}
