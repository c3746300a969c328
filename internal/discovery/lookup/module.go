package lookup

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/internal/core/metrics"
	"github.com/dep2p/go-locator/pkg/interfaces"
)

// Params Requester 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config      `optional:"true"`
	Lookups    []interfaces.Lookup `group:"lookups"`
	Replies    interfaces.ReplyEndpoint
	Reporter   metrics.Reporter `optional:"true"`
	Clock      clock.Clock      `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("lookup",
		fx.Provide(ProvideRequester),
	)
}

// ProvideRequester 提供 Requester
func ProvideRequester(p Params) (*Requester, error) {
	opts := []Option{WithReporter(p.Reporter)}
	if p.Clock != nil {
		opts = append(opts, WithClock(p.Clock))
	}

	r, err := New(ConfigFromUnified(p.UnifiedCfg), p.Lookups, p.Replies, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("请求方已创建",
		"lookups", len(p.Lookups),
		"timeout", r.cfg.Timeout,
		"retryCount", r.cfg.RetryCount,
		"latencyMultiplier", r.cfg.LatencyMultiplier)
	return r, nil
}
