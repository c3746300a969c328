package types

import "strings"

// ============================================================================
//                              Proxy - 对象代理
// ============================================================================

// Proxy 远程对象代理
//
// 代理要么是直接代理（携带 Endpoints），要么是间接代理
// （只携带 AdapterID，需要通过定位器解析）。
type Proxy struct {
	// Identity 对象身份（适配器代理可为空）
	Identity Identity `json:"identity,omitempty"`

	// Facet 对象分面
	Facet string `json:"facet,omitempty"`

	// AdapterID 所属适配器或副本组 ID
	AdapterID string `json:"adapter_id,omitempty"`

	// Endpoints 直接端点
	Endpoints []Endpoint `json:"endpoints,omitempty"`
}

// IsIndirect 是否为间接代理
func (p *Proxy) IsIndirect() bool {
	return len(p.Endpoints) == 0 && p.AdapterID != ""
}

// Clone 深拷贝代理
func (p *Proxy) Clone() *Proxy {
	if p == nil {
		return nil
	}
	c := *p
	c.Endpoints = CloneEndpoints(p.Endpoints)
	return &c
}

// WithFacet 返回设置了分面的副本
func (p *Proxy) WithFacet(facet string) *Proxy {
	c := p.Clone()
	c.Facet = facet
	return c
}

// WithEndpoints 返回替换了端点的副本
func (p *Proxy) WithEndpoints(eps []Endpoint) *Proxy {
	c := p.Clone()
	c.Endpoints = CloneEndpoints(eps)
	return c
}

// String 返回代理的可读表示
//
// 间接代理："name@adapter"，直接代理："name:udp:h:4061:tcp:h:4062"。
func (p *Proxy) String() string {
	if p == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(p.Identity.String())
	if p.Facet != "" {
		b.WriteString(" -f ")
		b.WriteString(p.Facet)
	}
	if len(p.Endpoints) == 0 {
		if p.AdapterID != "" {
			b.WriteString("@")
			b.WriteString(p.AdapterID)
		}
		return b.String()
	}
	for _, ep := range p.Endpoints {
		b.WriteString(":")
		b.WriteString(ep.String())
	}
	return b.String()
}
