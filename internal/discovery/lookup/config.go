package lookup

import (
	"fmt"
	"time"

	"github.com/dep2p/go-locator/config"
)

// Config Requester 配置
type Config struct {
	// DomainID 发现域
	DomainID string

	// Timeout 单次尝试超时
	Timeout time.Duration

	// RetryCount 总尝试次数
	RetryCount int

	// LatencyMultiplier 副本聚合等待倍数，必须 >= 1
	LatencyMultiplier int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Timeout:           config.DefaultTimeout,
		RetryCount:        config.DefaultRetryCount,
		LatencyMultiplier: config.DefaultLatencyMultiplier,
	}
}

// ConfigFromUnified 从统一配置创建 Requester 配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	d := cfg.Discovery
	return Config{
		DomainID:          d.DomainID,
		Timeout:           d.EffectiveTimeout(),
		RetryCount:        d.EffectiveRetryCount(),
		LatencyMultiplier: d.LatencyMultiplier,
	}
}

// normalize 校验倍数并把无限超时与非正次数强制为默认值
func (c Config) normalize() (Config, error) {
	if c.LatencyMultiplier < 1 {
		return c, &config.ConfigError{
			Field:   "discovery.latency_multiplier",
			Message: fmt.Sprintf("must be a positive integer, got %d", c.LatencyMultiplier),
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = config.DefaultTimeout
	}
	if c.RetryCount <= 0 {
		c.RetryCount = config.DefaultRetryCount
	}
	return c, nil
}
