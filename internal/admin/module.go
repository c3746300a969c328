package admin

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/internal/core/metrics"
	"github.com/dep2p/go-locator/internal/core/registry"
)

// Params 管理接口依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Registry   *registry.Registry
	Collector  *metrics.Collector `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("admin",
		fx.Provide(ProvideServer),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideServer 提供管理接口服务
func ProvideServer(p Params) *Server {
	var opts []ServerOption
	if p.Collector != nil {
		opts = append(opts, WithMetricsHandler(p.Collector.Handler()))
	}
	return NewServer(p.Registry, opts...)
}

type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	UnifiedCfg *config.Config `optional:"true"`
	Server     *Server
}

// registerLifecycle 启用时监听管理地址
func registerLifecycle(in lifecycleInput) {
	cfg := config.DefaultAdminConfig()
	if in.UnifiedCfg != nil {
		cfg = in.UnifiedCfg.Admin
	}
	if !cfg.Enabled {
		return
	}

	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return in.Server.Start(cfg.ListenAddr)
		},
		OnStop: func(ctx context.Context) error {
			return in.Server.Shutdown(ctx)
		},
	})
}
