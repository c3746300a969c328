package types

import "errors"

// ============================================================================
//                              端点相关错误
// ============================================================================

var (
	// ErrInvalidEndpoint 无效的端点字符串
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrEmptyTransport 端点缺少传输协议
	ErrEmptyTransport = errors.New("endpoint transport is empty")

	// ErrInvalidPort 端点端口超出范围
	ErrInvalidPort = errors.New("endpoint port out of range")
)

// ============================================================================
//                              身份相关错误
// ============================================================================

var (
	// ErrEmptyIdentity 身份名称为空
	ErrEmptyIdentity = errors.New("identity name is empty")

	// ErrEmptyAdapterID 适配器 ID 为空
	ErrEmptyAdapterID = errors.New("adapter id is empty")
)
