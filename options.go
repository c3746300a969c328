package locator

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-locator/config"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 基础配置（WithConfig 设置，否则为默认配置）
	config *config.Config

	// 在基础配置之上依次应用的修改
	mutators []func(*config.Config)

	// 用户扩展 Fx 选项
	fxOptions []fx.Option
}

// build 合成最终配置
func (o *options) build() *config.Config {
	cfg := o.config.Clone()
	if cfg == nil {
		cfg = config.NewConfig()
	}
	for _, m := range o.mutators {
		m(cfg)
	}
	return cfg
}

func (o *options) mutate(m func(*config.Config)) {
	o.mutators = append(o.mutators, m)
}

// WithConfig 使用完整配置作为基础
//
// 其它选项总是在该配置之上生效，与参数顺序无关。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = cfg
		return nil
	}
}

// WithDomainID 设置发现域
func WithDomainID(domainID string) Option {
	return func(o *options) error {
		o.mutate(func(c *config.Config) { c.Discovery.DomainID = domainID })
		return nil
	}
}

// WithTimeout 设置单次尝试超时
//
// d <= 0 表示无限等待，会被强制为默认超时。
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.mutate(func(c *config.Config) { c.Discovery.Timeout = config.Duration(d) })
		return nil
	}
}

// WithRetryCount 设置总尝试次数
func WithRetryCount(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return fmt.Errorf("retry count must not be negative: %d", n)
		}
		o.mutate(func(c *config.Config) { c.Discovery.RetryCount = n })
		return nil
	}
}

// WithLatencyMultiplier 设置副本聚合的延迟倍数（>= 1）
func WithLatencyMultiplier(m int) Option {
	return func(o *options) error {
		if m < 1 {
			return fmt.Errorf("latency multiplier must be a positive integer: %d", m)
		}
		o.mutate(func(c *config.Config) { c.Discovery.LatencyMultiplier = m })
		return nil
	}
}

// WithColocated 设置同进程短路查询
func WithColocated(enable bool) Option {
	return func(o *options) error {
		o.mutate(func(c *config.Config) { c.Discovery.Colocated = enable })
		return nil
	}
}

// WithResponder 设置是否加入组播组应答远端查询
func WithResponder(enable bool) Option {
	return func(o *options) error {
		o.mutate(func(c *config.Config) { c.Discovery.EnableResponder = enable })
		return nil
	}
}

// WithReplyAddr 设置应答端点的绑定主机与端口
func WithReplyAddr(host string, port int) Option {
	return func(o *options) error {
		o.mutate(func(c *config.Config) {
			c.Discovery.ReplyHost = host
			c.Discovery.ReplyPort = port
		})
		return nil
	}
}

// WithCache 设置客户端解析结果缓存（ttl 为 0 关闭）
func WithCache(size int, ttl time.Duration) Option {
	return func(o *options) error {
		o.mutate(func(c *config.Config) {
			c.Discovery.CacheSize = size
			c.Discovery.CacheTTL = config.Duration(ttl)
		})
		return nil
	}
}

// WithPreset 应用预设（client/server/colocated）
func WithPreset(name string) Option {
	return func(o *options) error {
		if err := config.ApplyPreset(config.NewConfig(), name); err != nil {
			return err
		}
		o.mutate(func(c *config.Config) { _ = config.ApplyPreset(c, name) })
		return nil
	}
}

// WithFxOptions 追加用户自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}
