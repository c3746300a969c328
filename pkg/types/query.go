package types

// ============================================================================
//                              QueryKind - 查询种类
// ============================================================================

// QueryKind 组播查询种类
type QueryKind uint8

const (
	// QueryUnknown 未知查询
	QueryUnknown QueryKind = iota
	// QueryFindAdapterByID 按适配器 ID 查找代理
	QueryFindAdapterByID
	// QueryFindObjectByID 按对象身份查找代理
	QueryFindObjectByID
	// QueryResolveAdapterID 按适配器 ID 解析端点列表（位置解析变体）
	QueryResolveAdapterID
	// QueryResolveWellKnownProxy 按对象身份解析所属适配器 ID
	QueryResolveWellKnownProxy
)

// String 返回查询种类的字符串表示
func (k QueryKind) String() string {
	switch k {
	case QueryFindAdapterByID:
		return "FindAdapterById"
	case QueryFindObjectByID:
		return "FindObjectById"
	case QueryResolveAdapterID:
		return "ResolveAdapterId"
	case QueryResolveWellKnownProxy:
		return "ResolveWellKnownProxy"
	default:
		return "Unknown"
	}
}

// ReplyKind 返回该查询期望的应答种类
func (k QueryKind) ReplyKind() ReplyKind {
	switch k {
	case QueryFindAdapterByID:
		return ReplyAdapterFound
	case QueryFindObjectByID:
		return ReplyObjectFound
	case QueryResolveAdapterID:
		return ReplyLocationFound
	case QueryResolveWellKnownProxy:
		return ReplyWellKnownFound
	default:
		return ReplyUnknown
	}
}

// Valid 是否为已知查询种类
func (k QueryKind) Valid() bool {
	return k >= QueryFindAdapterByID && k <= QueryResolveWellKnownProxy
}
