package responder

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/internal/core/metrics"
	"github.com/dep2p/go-locator/internal/core/registry"
	"github.com/dep2p/go-locator/internal/core/transport"
	"github.com/dep2p/go-locator/pkg/interfaces"
)

// Config Responder 配置
type Config struct {
	DomainID string

	// Listen 是否加入组播组应答远端请求
	Listen bool

	// Colocated 是否作为同进程 Lookup 加入 Requester
	Colocated bool
}

// ConfigFromUnified 从统一配置创建 Responder 配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		d := config.DefaultDiscoveryConfig()
		return Config{DomainID: d.DomainID, Listen: d.EnableResponder, Colocated: d.Colocated}
	}
	return Config{
		DomainID:  cfg.Discovery.DomainID,
		Listen:    cfg.Discovery.EnableResponder,
		Colocated: cfg.Discovery.Colocated,
	}
}

// Params Responder 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Registry   *registry.Registry
	Reporter   metrics.Reporter `optional:"true"`
}

// Output Responder 模块输出
type Output struct {
	fx.Out

	Responder *Responder
	Lookups   []interfaces.Lookup `group:"lookups,flatten"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("responder",
		fx.Provide(ProvideResponder),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideResponder 提供 Responder，同进程模式下同时加入 Lookup 集合
func ProvideResponder(p Params) Output {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	r := New(cfg.DomainID, p.Registry, p.Reporter)

	out := Output{Responder: r}
	if cfg.Colocated {
		out.Lookups = []interfaces.Lookup{r.Colocated()}
	}
	return out
}

type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	UnifiedCfg *config.Config `optional:"true"`
	Transport  transport.Config
	Responder  *Responder
}

// registerLifecycle 启用时加入组播组
func registerLifecycle(in lifecycleInput) error {
	if !ConfigFromUnified(in.UnifiedCfg).Listen {
		return nil
	}

	listeners, err := transport.NewMulticastListeners(in.Transport, in.Responder)
	if err != nil {
		return err
	}

	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := startAll(listeners); err != nil {
				return err
			}
			logger.Info("应答方已启动",
				"domain", in.Responder.DomainID(),
				"groups", len(listeners))
			return nil
		},
		OnStop: func(_ context.Context) error {
			var errs error
			for _, l := range listeners {
				errs = multierr.Append(errs, l.Close())
			}
			return errs
		},
	})
	return nil
}

// startable 可启停的监听者
type startable interface {
	Start() error
	Close() error
}

// startAll 依次启动监听者，任一失败时关闭已启动的并合并错误
func startAll[T startable](listeners []T) error {
	for i, l := range listeners {
		if err := l.Start(); err != nil {
			for _, started := range listeners[:i] {
				err = multierr.Append(err, started.Close())
			}
			return err
		}
	}
	return nil
}
