package locator

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/internal/core/metrics"
	"github.com/dep2p/go-locator/internal/discovery/lookup"
	"github.com/dep2p/go-locator/pkg/interfaces"
)

// Params Locator 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Requester  *lookup.Requester
	Registry   interfaces.LocatorRegistry
	Reporter   metrics.Reporter `optional:"true"`
}

// Output Locator 模块输出
type Output struct {
	fx.Out

	Locator  *Locator
	Resolver interfaces.Locator
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("locator",
		fx.Provide(ProvideLocator),
	)
}

// ProvideLocator 提供 Locator
func ProvideLocator(p Params) Output {
	opts := []Option{WithReporter(p.Reporter)}
	if p.UnifiedCfg != nil {
		d := p.UnifiedCfg.Discovery
		opts = append(opts, WithCache(d.CacheSize, d.CacheTTL.Duration()))
	}

	l := New(p.Requester, p.Registry, opts...)
	return Output{Locator: l, Resolver: l}
}
