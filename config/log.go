package config

import (
	"github.com/dep2p/go-locator/pkg/lib/log"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别 debug/info/warn/error
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format 输出格式 text/json
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: string(log.FormatText),
	}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	if _, err := log.ParseLevel(c.Level); err != nil {
		return newConfigError("log.level", err.Error())
	}
	switch log.Format(c.Format) {
	case "", log.FormatText, log.FormatJSON:
		return nil
	default:
		return newConfigError("log.format", "must be text or json")
	}
}
