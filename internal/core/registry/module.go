package registry

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/pkg/interfaces"
)

// Config Registry 配置
type Config struct {
	// EnableProbe 知名对象解析时是否对候选做存在性探测
	EnableProbe bool

	// ProbeTimeout 单个端点的探测超时
	ProbeTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		EnableProbe:  true,
		ProbeTimeout: DefaultProbeTimeout,
	}
}

// ConfigFromUnified 从统一配置创建 Registry 配置
//
// 只有启用 Responder 的节点才持有可被探测的目录。
func ConfigFromUnified(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg != nil {
		c.EnableProbe = cfg.Discovery.EnableResponder
	}
	return c
}

// Params Registry 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Prober     Prober         `optional:"true"`
}

// Output Registry 模块输出
type Output struct {
	fx.Out

	Registry        *Registry
	LocatorRegistry interfaces.LocatorRegistry
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("registry",
		fx.Provide(ProvideRegistry),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideRegistry 提供 Registry 实例
func ProvideRegistry(p Params) Output {
	cfg := ConfigFromUnified(p.UnifiedCfg)

	var opts []Option
	switch {
	case p.Prober != nil:
		opts = append(opts, WithProber(p.Prober))
	case cfg.EnableProbe:
		opts = append(opts, WithProber(NewDialProber(cfg.ProbeTimeout)))
	}

	r := New(opts...)
	return Output{Registry: r, LocatorRegistry: r}
}

// registerLifecycle 目录随应用停止而清空
func registerLifecycle(lc fx.Lifecycle, r *Registry) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			s := r.Stats()
			r.Reset()
			logger.Info("目录已清空",
				"adapters", s.Adapters,
				"replicaGroups", s.ReplicaGroups,
				"objects", s.Objects)
			return nil
		},
	})
}
