package locator

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/internal/admin"
	"github.com/dep2p/go-locator/internal/core/metrics"
	"github.com/dep2p/go-locator/internal/core/registry"
	"github.com/dep2p/go-locator/internal/core/transport"
	discoverylocator "github.com/dep2p/go-locator/internal/discovery/locator"
	"github.com/dep2p/go-locator/internal/discovery/lookup"
	"github.com/dep2p/go-locator/internal/discovery/responder"
	"github.com/dep2p/go-locator/pkg/lib/log"
)

var fxLogger = log.Logger("locator/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. Core: Registry → Metrics → Transport
//  2. Discovery: Responder → Requester → Locator
//  3. Admin（始终构造 Server，是否监听由配置决定）
//  4. 用户扩展 Fx 选项
func buildFxApp(cfg *config.Config, fxOptions []fx.Option, svc *Service) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := config.ValidateCompatibility(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 核心模块
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(cfg),

		registry.Module(),  // 本地目录
		metrics.Module(),   // 指标（未启用时为 Nop）
		transport.Module(), // 组播发送端与应答端点
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 发现层
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		responder.Module(),        // 组播应答方（同进程模式下也作为 Lookup）
		lookup.Module(),           // 关联引擎
		discoverylocator.Module(), // 查找门面
	)

	// ════════════════════════════════════════════════════════════════════════
	// 4. 管理接口
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, admin.Module())

	// ════════════════════════════════════════════════════════════════════════
	// 5. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(fxOptions) > 0 {
		modules = append(modules, fxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 6. Service 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Invoke(injectServiceComponents(svc)))

	// ════════════════════════════════════════════════════════════════════════
	// 7. Fx 配置
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	fxLogger.Debug("Fx 应用已构建",
		"domain", cfg.Discovery.DomainID,
		"responder", cfg.Discovery.EnableResponder,
		"colocated", cfg.Discovery.Colocated)
	return app, nil
}

// serviceInjectParams Service 组件注入参数
type serviceInjectParams struct {
	fx.In

	// 核心组件（必需）
	Locator       *discoverylocator.Locator
	Registry      *registry.Registry
	ReplyEndpoint *transport.ReplyEndpoint
	Admin         *admin.Server

	// 可选组件
	Collector *metrics.Collector `optional:"true"`
}

// injectServiceComponents 创建 Service 组件注入函数
func injectServiceComponents(svc *Service) interface{} {
	return func(p serviceInjectParams) {
		svc.locator = p.Locator
		svc.registry = p.Registry
		svc.replies = p.ReplyEndpoint
		svc.admin = p.Admin
		svc.collector = p.Collector
	}
}
