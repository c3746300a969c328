package transport

import "errors"

// 预定义错误
var (
	// ErrNotStarted 传输尚未启动
	ErrNotStarted = errors.New("transport: not started")

	// ErrClosed 传输已关闭
	ErrClosed = errors.New("transport: closed")

	// ErrNoReplyTarget 查询缺少应答目标
	ErrNoReplyTarget = errors.New("transport: query has no reply target")

	// ErrDuplicateReplyID 应答身份已注册
	ErrDuplicateReplyID = errors.New("transport: reply id already registered")
)
