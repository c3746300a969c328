package interfaces

import (
	"context"

	"github.com/dep2p/go-locator/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
// Locator 定位器门面
// ════════════════════════════════════════════════════════════════════════════

// Locator 客户端使用的定位器
//
// 找不到时返回空结果（nil / 空切片 / 空字符串）且 error 为 nil；
// 只有参数非法时才返回错误。
type Locator interface {
	// FindAdapterByID 按适配器 ID（或副本组 ID）查找代理
	FindAdapterByID(ctx context.Context, adapterID string) (*types.Proxy, error)

	// FindObjectByID 按身份查找对象代理，结果带上 facet
	FindObjectByID(ctx context.Context, id types.Identity, facet string) (*types.Proxy, error)

	// ResolveLocation 按路径解析端点列表（仅支持单段路径）
	ResolveLocation(ctx context.Context, location []string) ([]types.Endpoint, error)

	// ResolveWellKnownProxy 解析知名对象所属的适配器 ID
	ResolveWellKnownProxy(ctx context.Context, id types.Identity, facet string) (string, error)

	// Registry 返回注册接口（仅供发布自身适配器的服务端使用）
	Registry() LocatorRegistry
}

// ════════════════════════════════════════════════════════════════════════════
// LocatorRegistry 注册接口
// ════════════════════════════════════════════════════════════════════════════

// LocatorRegistry 服务端发布适配器与知名对象的管理接口
//
// 实现：
//   - registry.Registry：进程内
//   - admin.Client：经 HTTP 访问远程 locatord
type LocatorRegistry interface {
	RegisterAdapterEndpoints(ctx context.Context, adapterID, replicaGroupID string, eps []types.Endpoint) error
	UnregisterAdapterEndpoints(ctx context.Context, adapterID, replicaGroupID string) error
	AddObject(ctx context.Context, id types.Identity, proxy *types.Proxy) error

	// SetAdapterDirectProxy proxy 为 nil 时注销，否则以 proxy 的端点注册
	SetAdapterDirectProxy(ctx context.Context, adapterID string, proxy *types.Proxy) error

	// SetReplicatedAdapterDirectProxy 同上，并加入副本组
	SetReplicatedAdapterDirectProxy(ctx context.Context, adapterID, replicaGroupID string, proxy *types.Proxy) error
}
