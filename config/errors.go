package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig 配置无效
var ErrInvalidConfig = errors.New("invalid config")

// ConfigError 配置错误
//
// 构造期同步返回，属于致命错误。
type ConfigError struct {
	Field   string // 配置字段路径
	Message string // 错误信息
}

// Error 实现 error 接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Unwrap 支持 errors.Is(err, ErrInvalidConfig)
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func newConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}
