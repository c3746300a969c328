package transport

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/pkg/interfaces"
)

// Params 传输依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Output 传输模块输出
type Output struct {
	fx.Out

	Config        Config
	ReplyEndpoint *ReplyEndpoint
	Replies       interfaces.ReplyEndpoint
	Proxies       []*LookupProxy
	Lookups       []interfaces.Lookup `group:"lookups,flatten"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(Provide),
		fx.Invoke(registerLifecycle),
	)
}

// Provide 提供应答端点与每个接口的 LookupProxy
func Provide(p Params) (Output, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)

	ep, err := NewReplyEndpoint(cfg)
	if err != nil {
		return Output{}, err
	}
	proxies, err := NewLookupProxies(cfg)
	if err != nil {
		return Output{}, err
	}

	lookups := make([]interfaces.Lookup, len(proxies))
	for i, px := range proxies {
		lookups[i] = px
	}

	return Output{
		Config:        cfg,
		ReplyEndpoint: ep,
		Replies:       ep,
		Proxies:       proxies,
		Lookups:       lookups,
	}, nil
}

type lifecycleInput struct {
	fx.In

	LC            fx.Lifecycle
	ReplyEndpoint *ReplyEndpoint
	Proxies       []*LookupProxy
}

// registerLifecycle 注册生命周期钩子
//
// 单个 LookupProxy 启动失败只记录日志，只要还有一个可用即可。
func registerLifecycle(in lifecycleInput) {
	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := in.ReplyEndpoint.Start(); err != nil {
				return err
			}
			started := 0
			var errs error
			for _, px := range in.Proxies {
				if err := px.Start(); err != nil {
					errs = multierr.Append(errs, err)
					logger.Warn("组播发送端启动失败", "proxy", px.String(), "error", err)
					continue
				}
				started++
			}
			if started == 0 && len(in.Proxies) > 0 {
				in.ReplyEndpoint.Close()
				return errs
			}
			logger.Info("传输已启动", "proxies", started, "replyAddr", in.ReplyEndpoint.Addr())
			return nil
		},
		OnStop: func(_ context.Context) error {
			var errs error
			for _, px := range in.Proxies {
				errs = multierr.Append(errs, px.Close())
			}
			return multierr.Append(errs, in.ReplyEndpoint.Close())
		},
	})
}
