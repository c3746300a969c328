package registry

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-locator/pkg/types"
)

// 预定义错误
var (
	// ErrDuplicateRegistration 适配器已处于活动状态
	ErrDuplicateRegistration = errors.New("registry: adapter already active")

	// ErrEmptyAdapterID 适配器 ID 为空
	ErrEmptyAdapterID = fmt.Errorf("registry: %w", types.ErrEmptyAdapterID)

	// ErrEmptyIdentity 对象身份为空
	ErrEmptyIdentity = fmt.Errorf("registry: %w", types.ErrEmptyIdentity)

	// ErrNoEndpoints 候选没有可探测的端点
	ErrNoEndpoints = errors.New("registry: no probeable endpoints")
)

// RegistrationError 注册操作错误
type RegistrationError struct {
	Op        string // 操作名称
	AdapterID string // 适配器 ID
	Err       error  // 原始错误
}

// Error 实现 error 接口
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registry: %s %q: %v", e.Op, e.AdapterID, e.Err)
}

// Unwrap 支持 errors.Is / errors.As
func (e *RegistrationError) Unwrap() error {
	return e.Err
}
