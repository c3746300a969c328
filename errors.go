package locator

import (
	"errors"

	"github.com/dep2p/go-locator/internal/core/registry"
	discoverylocator "github.com/dep2p/go-locator/internal/discovery/locator"
	"github.com/dep2p/go-locator/internal/discovery/lookup"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 服务生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 服务未启动
	ErrNotStarted = errors.New("locator: service not started")

	// ErrAlreadyStarted 服务已启动
	ErrAlreadyStarted = errors.New("locator: service already started")

	// ErrClosed 服务已关闭
	ErrClosed = errors.New("locator: service closed")

	// ────────────────────────────────────────────────────────────────────────
	// 查找与注册错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrInvalidArgument 查找参数无效（空适配器 ID、空身份、空路径）
	ErrInvalidArgument = discoverylocator.ErrInvalidArgument

	// ErrInvalidQuery 查询种类无效
	ErrInvalidQuery = lookup.ErrInvalidQuery

	// ErrDuplicateRegistration 适配器 ID 已注册
	ErrDuplicateRegistration = registry.ErrDuplicateRegistration
)
