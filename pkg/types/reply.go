package types

// ============================================================================
//                              ReplyKind - 应答种类
// ============================================================================

// ReplyKind 单播应答种类
type ReplyKind uint8

const (
	// ReplyUnknown 未知应答
	ReplyUnknown ReplyKind = iota
	// ReplyAdapterFound FoundAdapterById(adapterId, proxy, isReplicaGroup)
	ReplyAdapterFound
	// ReplyObjectFound FoundObjectById(identity, proxy)
	ReplyObjectFound
	// ReplyLocationFound FoundAdapterId(endpointList, isReplicaGroup)
	ReplyLocationFound
	// ReplyWellKnownFound FoundWellKnownProxy(adapterId)
	ReplyWellKnownFound
)

// String 返回应答种类的字符串表示
func (k ReplyKind) String() string {
	switch k {
	case ReplyAdapterFound:
		return "FoundAdapterById"
	case ReplyObjectFound:
		return "FoundObjectById"
	case ReplyLocationFound:
		return "FoundAdapterId"
	case ReplyWellKnownFound:
		return "FoundWellKnownProxy"
	default:
		return "Unknown"
	}
}

// Valid 是否为已知应答种类
func (k ReplyKind) Valid() bool {
	return k >= ReplyAdapterFound && k <= ReplyWellKnownFound
}

// ============================================================================
//                              Reply - 应答联合类型
// ============================================================================

// Reply 查询应答
//
// 四种应答共用一个结构，由 Kind 区分有效字段：
//
//	ReplyAdapterFound:   AdapterID, Proxy, IsReplicaGroup
//	ReplyObjectFound:    Identity, Proxy
//	ReplyLocationFound:  Endpoints, IsReplicaGroup
//	ReplyWellKnownFound: AdapterID
type Reply struct {
	Kind ReplyKind

	// ReplyID 请求方的临时应答身份
	ReplyID string

	AdapterID      string
	Identity       Identity
	Proxy          *Proxy
	Endpoints      []Endpoint
	IsReplicaGroup bool
}

// NewAdapterFound 构造 FoundAdapterById 应答
func NewAdapterFound(adapterID string, proxy *Proxy, isReplicaGroup bool) *Reply {
	return &Reply{
		Kind:           ReplyAdapterFound,
		AdapterID:      adapterID,
		Proxy:          proxy,
		IsReplicaGroup: isReplicaGroup,
	}
}

// NewObjectFound 构造 FoundObjectById 应答
func NewObjectFound(id Identity, proxy *Proxy) *Reply {
	return &Reply{
		Kind:     ReplyObjectFound,
		Identity: id,
		Proxy:    proxy,
	}
}

// NewLocationFound 构造 FoundAdapterId 应答
func NewLocationFound(eps []Endpoint, isReplicaGroup bool) *Reply {
	return &Reply{
		Kind:           ReplyLocationFound,
		Endpoints:      eps,
		IsReplicaGroup: isReplicaGroup,
	}
}

// NewWellKnownFound 构造 FoundWellKnownProxy 应答
func NewWellKnownFound(adapterID string) *Reply {
	return &Reply{
		Kind:      ReplyWellKnownFound,
		AdapterID: adapterID,
	}
}

// HasPayload 应答是否携带该种类要求的有效载荷
func (r *Reply) HasPayload() bool {
	if r == nil {
		return false
	}
	switch r.Kind {
	case ReplyAdapterFound, ReplyObjectFound:
		return r.Proxy != nil
	case ReplyLocationFound:
		return len(r.Endpoints) > 0
	case ReplyWellKnownFound:
		return r.AdapterID != ""
	default:
		return false
	}
}

// ReplicaEndpoints 返回参与副本组聚合的端点集合
func (r *Reply) ReplicaEndpoints() []Endpoint {
	switch r.Kind {
	case ReplyAdapterFound:
		if r.Proxy != nil {
			return r.Proxy.Endpoints
		}
	case ReplyLocationFound:
		return r.Endpoints
	}
	return nil
}

// WithEndpoints 返回端点被替换为 eps 的副本（聚合结果）
func (r *Reply) WithEndpoints(eps []Endpoint) *Reply {
	c := *r
	switch r.Kind {
	case ReplyAdapterFound:
		if r.Proxy != nil {
			c.Proxy = r.Proxy.WithEndpoints(eps)
		}
	case ReplyLocationFound:
		c.Endpoints = CloneEndpoints(eps)
	}
	return &c
}
