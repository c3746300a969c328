package locator

import (
	"context"

	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/types"
)

var _ interfaces.Locator = (*serviceLocator)(nil)

// serviceLocator 带状态检查的查找门面
type serviceLocator struct {
	svc *Service
}

// FindAdapterByID 实现 interfaces.Locator
func (l *serviceLocator) FindAdapterByID(ctx context.Context, adapterID string) (*types.Proxy, error) {
	if err := l.svc.checkRunning(); err != nil {
		return nil, err
	}
	return l.svc.locator.FindAdapterByID(ctx, adapterID)
}

// FindObjectByID 实现 interfaces.Locator
func (l *serviceLocator) FindObjectByID(ctx context.Context, id types.Identity, facet string) (*types.Proxy, error) {
	if err := l.svc.checkRunning(); err != nil {
		return nil, err
	}
	return l.svc.locator.FindObjectByID(ctx, id, facet)
}

// ResolveLocation 实现 interfaces.Locator
func (l *serviceLocator) ResolveLocation(ctx context.Context, location []string) ([]types.Endpoint, error) {
	if err := l.svc.checkRunning(); err != nil {
		return nil, err
	}
	return l.svc.locator.ResolveLocation(ctx, location)
}

// ResolveWellKnownProxy 实现 interfaces.Locator
func (l *serviceLocator) ResolveWellKnownProxy(ctx context.Context, id types.Identity, facet string) (string, error) {
	if err := l.svc.checkRunning(); err != nil {
		return "", err
	}
	return l.svc.locator.ResolveWellKnownProxy(ctx, id, facet)
}

// Registry 实现 interfaces.Locator
func (l *serviceLocator) Registry() interfaces.LocatorRegistry {
	return l.svc.Registry()
}
