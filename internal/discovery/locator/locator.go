// Package locator 实现定位器门面
//
// 四个查询操作一一映射到 Requester 的查询种类，并统一结果：
//   - 参数非法（空 ID、空位置）返回 ErrInvalidArgument
//   - 找不到返回空结果且 error 为 nil
//   - 多段位置路径返回空结果（兼容旧行为）
//
// 可选的客户端缓存只保存找到的结果，未找到从不缓存。
package locator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dep2p/go-locator/internal/core/metrics"
	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/lib/log"
	"github.com/dep2p/go-locator/pkg/types"
)

var logger = log.Logger("discovery/locator")

// 确保实现了接口
var _ interfaces.Locator = (*Locator)(nil)

// ErrInvalidArgument 参数非法
var ErrInvalidArgument = errors.New("locator: invalid argument")

// Invoker 执行一次发现查询
//
// 由 lookup.Requester 实现；找不到时返回 (nil, nil)。
type Invoker interface {
	Invoke(ctx context.Context, q interfaces.Query) (*types.Reply, error)
}

// Locator 定位器门面
type Locator struct {
	invoker  Invoker
	registry interfaces.LocatorRegistry
	cache    *expirable.LRU[string, *types.Reply]
	reporter metrics.Reporter
}

// Option Locator 选项
type Option func(*Locator)

// WithCache 启用结果缓存（ttl <= 0 或 size <= 0 时不缓存）
func WithCache(size int, ttl time.Duration) Option {
	return func(l *Locator) {
		if size <= 0 || ttl <= 0 {
			l.cache = nil
			return
		}
		l.cache = expirable.NewLRU[string, *types.Reply](size, nil, ttl)
	}
}

// WithReporter 设置指标记录（用于缓存命中）
func WithReporter(rep metrics.Reporter) Option {
	return func(l *Locator) {
		if rep != nil {
			l.reporter = rep
		}
	}
}

// New 创建 Locator
func New(invoker Invoker, reg interfaces.LocatorRegistry, opts ...Option) *Locator {
	l := &Locator{
		invoker:  invoker,
		registry: reg,
		reporter: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FindAdapterByID 实现 interfaces.Locator
func (l *Locator) FindAdapterByID(ctx context.Context, adapterID string) (*types.Proxy, error) {
	if adapterID == "" {
		return nil, fmt.Errorf("%w: empty adapter id", ErrInvalidArgument)
	}

	reply, err := l.query(ctx, interfaces.Query{Kind: types.QueryFindAdapterByID, AdapterID: adapterID}, "a/"+adapterID)
	if err != nil || reply == nil {
		return nil, err
	}

	p := reply.Proxy.Clone()
	if p.AdapterID == "" {
		p.AdapterID = adapterID
	}
	return p, nil
}

// FindObjectByID 实现 interfaces.Locator
func (l *Locator) FindObjectByID(ctx context.Context, id types.Identity, facet string) (*types.Proxy, error) {
	if id.IsEmpty() {
		return nil, fmt.Errorf("%w: empty identity", ErrInvalidArgument)
	}

	q := interfaces.Query{Kind: types.QueryFindObjectByID, Identity: id, Facet: facet}
	reply, err := l.query(ctx, q, "o/"+id.String())
	if err != nil || reply == nil {
		return nil, err
	}

	p := reply.Proxy.WithFacet(facet)
	p.Identity = id
	return p, nil
}

// ResolveLocation 实现 interfaces.Locator
//
// 只支持单段位置；多段位置返回空结果。
func (l *Locator) ResolveLocation(ctx context.Context, location []string) ([]types.Endpoint, error) {
	if len(location) == 0 || location[0] == "" {
		return nil, fmt.Errorf("%w: empty location", ErrInvalidArgument)
	}
	if len(location) > 1 {
		logger.Debug("不支持多段位置，返回空结果", "location", location)
		return nil, nil
	}

	reply, err := l.query(ctx, interfaces.Query{Kind: types.QueryResolveAdapterID, AdapterID: location[0]}, "l/"+location[0])
	if err != nil || reply == nil {
		return nil, err
	}
	return types.CloneEndpoints(reply.Endpoints), nil
}

// ResolveWellKnownProxy 实现 interfaces.Locator
func (l *Locator) ResolveWellKnownProxy(ctx context.Context, id types.Identity, facet string) (string, error) {
	if id.IsEmpty() {
		return "", fmt.Errorf("%w: empty identity", ErrInvalidArgument)
	}

	q := interfaces.Query{Kind: types.QueryResolveWellKnownProxy, Identity: id, Facet: facet}
	reply, err := l.query(ctx, q, "w/"+id.String())
	if err != nil || reply == nil {
		return "", err
	}
	return reply.AdapterID, nil
}

// Registry 实现 interfaces.Locator
func (l *Locator) Registry() interfaces.LocatorRegistry {
	return l.registry
}

// Purge 清空缓存
func (l *Locator) Purge() {
	if l.cache != nil {
		l.cache.Purge()
	}
}

// query 先查缓存，再执行发现查询
func (l *Locator) query(ctx context.Context, q interfaces.Query, key string) (*types.Reply, error) {
	if l.cache != nil {
		if reply, ok := l.cache.Get(key); ok {
			l.reporter.LookupCompleted(q.Kind, metrics.OutcomeCached, 0)
			return reply, nil
		}
	}

	reply, err := l.invoker.Invoke(ctx, q)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		logger.Debug("未找到", "kind", q.Kind.String(), "key", key)
		return nil, nil
	}

	if l.cache != nil {
		l.cache.Add(key, reply)
	}
	return reply, nil
}
