package responder

import (
	"context"

	"github.com/dep2p/go-locator/pkg/interfaces"
)

// colocatedLookup 同进程 Lookup
//
// 在后台 goroutine 中应答，存活探测不占用请求方的发送阶段，
// 单次尝试的耗时仍受请求方超时约束。
type colocatedLookup struct {
	r *Responder
}

// Colocated 返回可加入 Requester 的同进程 Lookup
func (r *Responder) Colocated() interfaces.Lookup {
	return &colocatedLookup{r: r}
}

// Query 实现 interfaces.Lookup，立即返回
func (l *colocatedLookup) Query(ctx context.Context, q *interfaces.Query) error {
	if q.ReplyTo == nil {
		return ErrNoReplyTarget
	}
	go func() {
		if err := l.r.Query(ctx, q); err != nil {
			logger.Debug("同进程应答失败", "kind", q.Kind.String(), "error", err)
		}
	}()
	return nil
}
