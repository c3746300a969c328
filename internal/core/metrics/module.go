package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/internal/core/registry"
	"github.com/dep2p/go-locator/pkg/lib/log"
)

var logger = log.Logger("core/metrics")

// Config 指标配置
type Config struct {
	Enabled    bool
	ListenAddr string
	Namespace  string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	d := config.DefaultMetricsConfig()
	return Config{Enabled: d.Enabled, ListenAddr: d.ListenAddr, Namespace: d.Namespace}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	c := Config{
		Enabled:    cfg.Metrics.Enabled,
		ListenAddr: cfg.Metrics.ListenAddr,
		Namespace:  cfg.Metrics.Namespace,
	}
	if c.Namespace == "" {
		c.Namespace = "locator"
	}
	return c
}

// Params 指标依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config     `optional:"true"`
	Registry   *registry.Registry `optional:"true"`
}

// Output 指标模块输出
type Output struct {
	fx.Out

	Reporter  Reporter
	Collector *Collector // 未启用时为 nil
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(Provide),
		fx.Invoke(registerLifecycle),
	)
}

// Provide 启用时提供 Collector，否则提供 Nop
func Provide(p Params) Output {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		return Output{Reporter: Nop{}}
	}

	c := NewCollector(cfg.Namespace)
	if p.Registry != nil {
		c.WatchRegistry(cfg.Namespace, p.Registry)
	}
	return Output{Reporter: c, Collector: c}
}

type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	UnifiedCfg *config.Config `optional:"true"`
	Collector  *Collector     `optional:"true"`
}

// registerLifecycle 配置了监听地址时暴露 /metrics
func registerLifecycle(in lifecycleInput) {
	cfg := ConfigFromUnified(in.UnifiedCfg)
	if in.Collector == nil || cfg.ListenAddr == "" {
		return
	}

	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", in.Collector.Handler())
	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			ln, err := net.Listen("tcp", cfg.ListenAddr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("指标服务异常退出", "error", err)
				}
			}()
			logger.Info("指标服务已启动", "addr", ln.Addr().String())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
