package registry

import (
	"context"
	"slices"
	"sync"

	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/lib/log"
	"github.com/dep2p/go-locator/pkg/types"
)

var logger = log.Logger("core/registry")

// 确保实现了接口
var _ interfaces.LocatorRegistry = (*Registry)(nil)

// Prober 存在性探测
//
// 用于知名对象解析：对候选代理做一次轻量的远程探测。
type Prober interface {
	Probe(ctx context.Context, proxy *types.Proxy) error
}

// adapterRecord 适配器记录
type adapterRecord struct {
	endpoints      []types.Endpoint
	replicaGroupID string
}

// Stats 目录统计
type Stats struct {
	Adapters      int
	ReplicaGroups int
	Objects       int
}

// Registry 定位器内存目录
type Registry struct {
	mu sync.Mutex

	adapters     map[string]*adapterRecord
	adapterOrder []string

	// groups 副本组 → 成员（按加入顺序），不存在空组
	groups     map[string][]string
	groupOrder []string

	objects map[types.Identity]*types.Proxy

	prober Prober
}

// Option Registry 选项
type Option func(*Registry)

// WithProber 设置知名对象解析使用的存在性探测
func WithProber(p Prober) Option {
	return func(r *Registry) {
		r.prober = p
	}
}

// New 创建 Registry
func New(opts ...Option) *Registry {
	r := &Registry{
		adapters: make(map[string]*adapterRecord),
		groups:   make(map[string][]string),
		objects:  make(map[types.Identity]*types.Proxy),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ============================================================================
//                              适配器注册
// ============================================================================

// RegisterAdapterEndpoints 注册适配器端点
//
// adapterID 已处于活动状态时返回 ErrDuplicateRegistration，不覆盖原记录。
// replicaGroupID 非空时加入该副本组（不存在则创建）。
func (r *Registry) RegisterAdapterEndpoints(_ context.Context, adapterID, replicaGroupID string, eps []types.Endpoint) error {
	if adapterID == "" {
		return ErrEmptyAdapterID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.adapters[adapterID]; ok {
		return &RegistrationError{Op: "register", AdapterID: adapterID, Err: ErrDuplicateRegistration}
	}

	r.adapters[adapterID] = &adapterRecord{
		endpoints:      types.CloneEndpoints(eps),
		replicaGroupID: replicaGroupID,
	}
	r.adapterOrder = append(r.adapterOrder, adapterID)

	if replicaGroupID != "" {
		members, ok := r.groups[replicaGroupID]
		if !ok {
			r.groupOrder = append(r.groupOrder, replicaGroupID)
		}
		r.groups[replicaGroupID] = append(members, adapterID)
	}

	logger.Debug("注册适配器",
		"adapter", adapterID,
		"replicaGroup", replicaGroupID,
		"endpoints", len(eps))
	return nil
}

// UnregisterAdapterEndpoints 注销适配器
//
// 同时从所属副本组移除，副本组变空时删除。未知 adapterID 为空操作。
func (r *Registry) UnregisterAdapterEndpoints(_ context.Context, adapterID, replicaGroupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.adapters[adapterID]
	if !ok {
		return nil
	}

	delete(r.adapters, adapterID)
	r.adapterOrder = removeString(r.adapterOrder, adapterID)

	// 以注册时记录的副本组为准，避免残留成员
	r.leaveGroup(rec.replicaGroupID, adapterID)
	if replicaGroupID != rec.replicaGroupID {
		r.leaveGroup(replicaGroupID, adapterID)
	}

	logger.Debug("注销适配器", "adapter", adapterID, "replicaGroup", rec.replicaGroupID)
	return nil
}

// SetAdapterDirectProxy proxy 为 nil 时注销，否则以其端点注册
func (r *Registry) SetAdapterDirectProxy(ctx context.Context, adapterID string, proxy *types.Proxy) error {
	return r.SetReplicatedAdapterDirectProxy(ctx, adapterID, "", proxy)
}

// SetReplicatedAdapterDirectProxy proxy 为 nil 时注销，否则注册并加入副本组
func (r *Registry) SetReplicatedAdapterDirectProxy(ctx context.Context, adapterID, replicaGroupID string, proxy *types.Proxy) error {
	if proxy == nil {
		return r.UnregisterAdapterEndpoints(ctx, adapterID, replicaGroupID)
	}
	return r.RegisterAdapterEndpoints(ctx, adapterID, replicaGroupID, proxy.Endpoints)
}

// leaveGroup 从副本组移除成员，调用方持有锁
func (r *Registry) leaveGroup(groupID, adapterID string) {
	if groupID == "" {
		return
	}
	members, ok := r.groups[groupID]
	if !ok {
		return
	}
	members = removeString(members, adapterID)
	if len(members) == 0 {
		delete(r.groups, groupID)
		r.groupOrder = removeString(r.groupOrder, groupID)
		logger.Debug("副本组已清空并删除", "replicaGroup", groupID)
		return
	}
	r.groups[groupID] = members
}

// ============================================================================
//                              查询
// ============================================================================

// FindAdapter 查找适配器或副本组的端点
//
// 先匹配普通适配器（isReplicaGroup=false），再匹配副本组，
// 副本组返回所有成员端点的并集（isReplicaGroup=true）。
func (r *Registry) FindAdapter(adapterID string) (eps []types.Endpoint, isReplicaGroup bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, found := r.adapters[adapterID]; found {
		return types.CloneEndpoints(rec.endpoints), false, true
	}

	if members, found := r.groups[adapterID]; found {
		return r.unionLocked(members), true, true
	}

	return nil, false, false
}

// unionLocked 合并成员端点，调用方持有锁
func (r *Registry) unionLocked(members []string) []types.Endpoint {
	sets := make([][]types.Endpoint, 0, len(members))
	for _, id := range members {
		if rec, ok := r.adapters[id]; ok {
			sets = append(sets, rec.endpoints)
		}
	}
	return types.MergeEndpoints(sets...)
}

// ============================================================================
//                              知名对象
// ============================================================================

// AddObject 添加或更新知名对象
func (r *Registry) AddObject(_ context.Context, id types.Identity, proxy *types.Proxy) error {
	if id.IsEmpty() {
		return ErrEmptyIdentity
	}
	if proxy == nil {
		r.RemoveObject(id)
		return nil
	}

	p := proxy.Clone()
	p.Identity = id

	r.mu.Lock()
	r.objects[id] = p
	r.mu.Unlock()

	logger.Debug("添加知名对象", "identity", id.String(), "proxy", p.String())
	return nil
}

// RemoveObject 移除知名对象
func (r *Registry) RemoveObject(id types.Identity) {
	r.mu.Lock()
	delete(r.objects, id)
	r.mu.Unlock()
}

// candidate 知名对象解析候选
type candidate struct {
	adapterID string
	endpoints []types.Endpoint
}

// FindObject 解析知名对象
//
// 返回的代理为间接代理（identity@adapterId），调用方再解析适配器。
func (r *Registry) FindObject(ctx context.Context, id types.Identity) (*types.Proxy, bool) {
	if id.IsEmpty() {
		return nil, false
	}

	r.mu.Lock()
	if p, ok := r.objects[id]; ok {
		r.mu.Unlock()
		return p.Clone(), true
	}

	prober := r.prober
	if prober == nil {
		r.mu.Unlock()
		return nil, false
	}

	// 锁内快照候选：先副本组，再普通适配器
	candidates := make([]candidate, 0, len(r.groupOrder)+len(r.adapterOrder))
	for _, g := range r.groupOrder {
		candidates = append(candidates, candidate{adapterID: g, endpoints: r.unionLocked(r.groups[g])})
	}
	for _, a := range r.adapterOrder {
		candidates = append(candidates, candidate{adapterID: a, endpoints: types.CloneEndpoints(r.adapters[a].endpoints)})
	}
	r.mu.Unlock()

	for _, c := range candidates {
		if ctx.Err() != nil {
			return nil, false
		}
		probe := &types.Proxy{Identity: id, AdapterID: c.adapterID, Endpoints: c.endpoints}
		if err := prober.Probe(ctx, probe); err != nil {
			logger.Debug("候选探测失败", "identity", id.String(), "adapter", c.adapterID, "error", err)
			continue
		}
		return &types.Proxy{Identity: id, AdapterID: c.adapterID}, true
	}
	return nil, false
}

// ============================================================================
//                              生命周期与统计
// ============================================================================

// Stats 返回目录统计
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Adapters:      len(r.adapters),
		ReplicaGroups: len(r.groups),
		Objects:       len(r.objects),
	}
}

// Reset 清空所有表（随拥有者生命周期结束调用）
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters = make(map[string]*adapterRecord)
	r.adapterOrder = nil
	r.groups = make(map[string][]string)
	r.groupOrder = nil
	r.objects = make(map[types.Identity]*types.Proxy)
}

func removeString(ss []string, s string) []string {
	i := slices.Index(ss, s)
	if i < 0 {
		return ss
	}
	return slices.Delete(ss, i, i+1)
}
