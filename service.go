package locator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/internal/admin"
	"github.com/dep2p/go-locator/internal/core/metrics"
	"github.com/dep2p/go-locator/internal/core/registry"
	"github.com/dep2p/go-locator/internal/core/transport"
	discoverylocator "github.com/dep2p/go-locator/internal/discovery/locator"
	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/lib/log"
)

var logger = log.Logger("locator")

// ════════════════════════════════════════════════════════════════════════════
//                              服务状态
// ════════════════════════════════════════════════════════════════════════════

// State 服务状态
type State int

const (
	// StateIdle 已创建，未启动
	StateIdle State = iota

	// StateStarting 启动中
	StateStarting

	// StateRunning 运行中
	StateRunning

	// StateStopped 已停止（不可再次启动）
	StateStopped
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	// startTimeout Fx App 启动超时
	startTimeout = 15 * time.Second

	// stopTimeout Close 使用的停止超时
	stopTimeout = 10 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              Service
// ════════════════════════════════════════════════════════════════════════════

// Service 定位发现服务
//
// 持有本地 Registry、组播应答方、关联引擎与查找门面。
// 生命周期：New → Start → Stop/Close，停止后不可再次启动。
type Service struct {
	mu    sync.Mutex
	state State

	cfg *config.Config
	app *fx.App

	// 由 Fx 注入
	locator   *discoverylocator.Locator
	registry  *registry.Registry
	replies   *transport.ReplyEndpoint
	admin     *admin.Server
	collector *metrics.Collector
}

// New 创建服务（不启动）
func New(opts ...Option) (*Service, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	svc := &Service{cfg: o.build()}
	app, err := buildFxApp(svc.cfg, o.fxOptions, svc)
	if err != nil {
		return nil, err
	}
	svc.app = app
	return svc, nil
}

// Start 启动服务：打开应答端点与组播发送端，按配置加入组播组、启动管理接口
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRunning, StateStarting:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrClosed
	}

	s.state = StateStarting
	logger.Info("正在启动定位服务", "domain", s.cfg.Discovery.DomainID)

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := s.app.Start(startCtx); err != nil {
		// fx 启动失败时已回滚已启动的钩子
		s.state = StateStopped
		logger.Error("定位服务启动失败", "error", err)
		return fmt.Errorf("start: %w", err)
	}

	s.state = StateRunning
	logger.Info("定位服务已启动", "replyAddr", s.replies.Addr())
	return nil
}

// Stop 停止服务并释放资源
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateStopped:
		return ErrClosed
	case StateIdle:
		s.state = StateStopped
		return nil
	}

	s.state = StateStopped
	s.locator.Purge()
	if err := s.app.Stop(ctx); err != nil {
		logger.Error("停止定位服务失败", "error", err)
		return fmt.Errorf("stop: %w", err)
	}
	logger.Info("定位服务已停止")
	return nil
}

// Close 以默认超时停止服务，可重复调用
func (s *Service) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := s.Stop(ctx); err != nil && err != ErrClosed {
		return err
	}
	return nil
}

// State 返回当前状态
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config 返回生效配置的副本
func (s *Service) Config() *config.Config {
	return s.cfg.Clone()
}

// Locator 返回查找接口
//
// 服务未运行时，查找方法返回 ErrNotStarted 或 ErrClosed。
func (s *Service) Locator() interfaces.Locator {
	return &serviceLocator{svc: s}
}

// Registry 返回本地注册接口
//
// 注册不依赖运行状态，可以在 Start 之前登记适配器。
func (s *Service) Registry() interfaces.LocatorRegistry {
	return s.registry
}

// Stats 返回本地目录统计
func (s *Service) Stats() registry.Stats {
	return s.registry.Stats()
}

// ReplyAddr 返回应答端点地址（未启动时为空）
func (s *Service) ReplyAddr() string {
	if s.State() != StateRunning {
		return ""
	}
	return s.replies.Addr()
}

// AdminAddr 返回管理接口实际监听地址（未启用时为空）
func (s *Service) AdminAddr() string {
	return s.admin.Addr()
}

// Gatherer 返回指标收集器（未启用指标时为 nil）
func (s *Service) Gatherer() prometheus.Gatherer {
	if s.collector == nil {
		return nil
	}
	return s.collector.Registry()
}

// checkRunning 查找前检查状态
func (s *Service) checkRunning() error {
	switch s.State() {
	case StateRunning:
		return nil
	case StateStopped:
		return ErrClosed
	default:
		return ErrNotStarted
	}
}
