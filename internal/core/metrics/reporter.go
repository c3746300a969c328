package metrics

import (
	"time"

	"github.com/dep2p/go-locator/pkg/types"
)

// Outcome 查询结果分类
type Outcome string

const (
	// OutcomeFound 找到结果
	OutcomeFound Outcome = "found"
	// OutcomeEmpty 所有尝试都没有应答
	OutcomeEmpty Outcome = "empty"
	// OutcomeSendFailed 某次尝试的所有发送都失败
	OutcomeSendFailed Outcome = "send_failed"
	// OutcomeCanceled 调用方取消
	OutcomeCanceled Outcome = "canceled"
	// OutcomeCached 命中客户端缓存
	OutcomeCached Outcome = "cached"
)

// Reporter 发现协议指标记录
type Reporter interface {
	// LookupCompleted 记录一次查询完成
	LookupCompleted(kind types.QueryKind, outcome Outcome, d time.Duration)

	// ReplyReceived 记录一个被接受的应答
	ReplyReceived(kind types.ReplyKind)

	// ReplyDropped 记录一个被丢弃的应答
	ReplyDropped()

	// SendFailed 记录单个接口发送失败
	SendFailed()

	// OutstandingAdd 调整未完成查询数
	OutstandingAdd(delta int)

	// RequestServed 记录 Responder 处理的请求
	RequestServed(kind types.QueryKind, answered bool)
}

// 确保 Nop 实现 Reporter 接口
var _ Reporter = Nop{}

// Nop 不记录任何指标
type Nop struct{}

// LookupCompleted 实现 Reporter
func (Nop) LookupCompleted(types.QueryKind, Outcome, time.Duration) {}

// ReplyReceived 实现 Reporter
func (Nop) ReplyReceived(types.ReplyKind) {}

// ReplyDropped 实现 Reporter
func (Nop) ReplyDropped() {}

// SendFailed 实现 Reporter
func (Nop) SendFailed() {}

// OutstandingAdd 实现 Reporter
func (Nop) OutstandingAdd(int) {}

// RequestServed 实现 Reporter
func (Nop) RequestServed(types.QueryKind, bool) {}
