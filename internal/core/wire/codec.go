package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/types"
)

// Version 当前信封版本
const Version = 1

// MaxDatagramSize 数据报大小上限
const MaxDatagramSize = 64 * 1024

// 预定义错误
var (
	// ErrUnsupportedVersion 信封版本不受支持
	ErrUnsupportedVersion = errors.New("wire: unsupported version")

	// ErrEmptyMessage 信封既不含请求也不含应答
	ErrEmptyMessage = errors.New("wire: empty message")

	// ErrTooLarge 数据报超过上限
	ErrTooLarge = errors.New("wire: datagram too large")

	// ErrInvalidKind 请求或应答类型超出取值范围
	ErrInvalidKind = errors.New("wire: invalid kind")
)

// 信封字段
const (
	envVersion protowire.Number = 1
	envRequest protowire.Number = 2
	envReply   protowire.Number = 3
)

// 请求字段
const (
	reqKind      protowire.Number = 1
	reqDomainID  protowire.Number = 2
	reqAdapterID protowire.Number = 3
	reqCategory  protowire.Number = 4
	reqName      protowire.Number = 5
	reqFacet     protowire.Number = 6
	reqReplyID   protowire.Number = 7
	reqReplyAddr protowire.Number = 8
)

// 应答字段
const (
	repKind       protowire.Number = 1
	repReplyID    protowire.Number = 2
	repAdapterID  protowire.Number = 3
	repCategory   protowire.Number = 4
	repName       protowire.Number = 5
	repProxy      protowire.Number = 6
	repEndpoint   protowire.Number = 7
	repIsReplicas protowire.Number = 8
)

// 代理字段
const (
	pxCategory  protowire.Number = 1
	pxName      protowire.Number = 2
	pxFacet     protowire.Number = 3
	pxAdapterID protowire.Number = 4
	pxEndpoint  protowire.Number = 5
)

// ============================================================================
//                              Request
// ============================================================================

// Request 组播请求的线上表示
type Request struct {
	Kind      types.QueryKind
	DomainID  string
	AdapterID string
	Identity  types.Identity
	Facet     string
	ReplyID   string

	// ReplyAddr 单播应答地址 "host:port"
	ReplyAddr string
}

// RequestFromQuery 从查询构造请求
func RequestFromQuery(q *interfaces.Query, replyAddr string) *Request {
	return &Request{
		Kind:      q.Kind,
		DomainID:  q.DomainID,
		AdapterID: q.AdapterID,
		Identity:  q.Identity,
		Facet:     q.Facet,
		ReplyID:   q.ReplyID,
		ReplyAddr: replyAddr,
	}
}

// Query 转换为查询，应答投递到 target
func (r *Request) Query(target interfaces.ReplyTarget) *interfaces.Query {
	return &interfaces.Query{
		Kind:      r.Kind,
		DomainID:  r.DomainID,
		AdapterID: r.AdapterID,
		Identity:  r.Identity,
		Facet:     r.Facet,
		ReplyID:   r.ReplyID,
		ReplyTo:   target,
	}
}

// Message 解码后的信封
type Message struct {
	Request *Request
	Reply   *types.Reply
}

// ============================================================================
//                              编码
// ============================================================================

// EncodeRequest 编码请求数据报
func EncodeRequest(r *Request) ([]byte, error) {
	var body []byte
	body = appendVarint(body, reqKind, uint64(r.Kind))
	body = appendString(body, reqDomainID, r.DomainID)
	body = appendString(body, reqAdapterID, r.AdapterID)
	body = appendString(body, reqCategory, r.Identity.Category)
	body = appendString(body, reqName, r.Identity.Name)
	body = appendString(body, reqFacet, r.Facet)
	body = appendString(body, reqReplyID, r.ReplyID)
	body = appendString(body, reqReplyAddr, r.ReplyAddr)
	return envelope(envRequest, body)
}

// EncodeReply 编码应答数据报
func EncodeReply(r *types.Reply) ([]byte, error) {
	var body []byte
	body = appendVarint(body, repKind, uint64(r.Kind))
	body = appendString(body, repReplyID, r.ReplyID)
	body = appendString(body, repAdapterID, r.AdapterID)
	body = appendString(body, repCategory, r.Identity.Category)
	body = appendString(body, repName, r.Identity.Name)
	if r.Proxy != nil {
		body = protowire.AppendTag(body, repProxy, protowire.BytesType)
		body = protowire.AppendBytes(body, encodeProxy(r.Proxy))
	}
	for _, ep := range r.Endpoints {
		body = protowire.AppendTag(body, repEndpoint, protowire.BytesType)
		body = protowire.AppendString(body, ep.String())
	}
	if r.IsReplicaGroup {
		body = appendVarint(body, repIsReplicas, 1)
	}
	return envelope(envReply, body)
}

func encodeProxy(p *types.Proxy) []byte {
	var b []byte
	b = appendString(b, pxCategory, p.Identity.Category)
	b = appendString(b, pxName, p.Identity.Name)
	b = appendString(b, pxFacet, p.Facet)
	b = appendString(b, pxAdapterID, p.AdapterID)
	for _, ep := range p.Endpoints {
		b = protowire.AppendTag(b, pxEndpoint, protowire.BytesType)
		b = protowire.AppendString(b, ep.String())
	}
	return b
}

func envelope(num protowire.Number, body []byte) ([]byte, error) {
	b := make([]byte, 0, len(body)+8)
	b = appendVarint(b, envVersion, Version)
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendBytes(b, body)
	if len(b) > MaxDatagramSize {
		return nil, ErrTooLarge
	}
	return b, nil
}

// appendString 空字符串不编码
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// appendVarint 零值不编码
func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// ============================================================================
//                              解码
// ============================================================================

// Decode 解码数据报
func Decode(b []byte) (*Message, error) {
	if len(b) > MaxDatagramSize {
		return nil, ErrTooLarge
	}

	var (
		version uint64
		msg     Message
	)
	err := walk(b, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		var err error
		switch {
		case num == envVersion && typ == protowire.VarintType:
			version = v
		case num == envRequest && typ == protowire.BytesType:
			msg.Request, err = decodeRequest(raw)
		case num == envReply && typ == protowire.BytesType:
			msg.Reply, err = decodeReply(raw)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if msg.Request == nil && msg.Reply == nil {
		return nil, ErrEmptyMessage
	}
	return &msg, nil
}

func decodeRequest(b []byte) (*Request, error) {
	r := &Request{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		if typ == protowire.VarintType {
			if num == reqKind {
				if v > math.MaxUint8 {
					return fmt.Errorf("%w: %d", ErrInvalidKind, v)
				}
				r.Kind = types.QueryKind(v)
			}
			return nil
		}
		if typ != protowire.BytesType {
			return nil
		}
		s := string(raw)
		switch num {
		case reqDomainID:
			r.DomainID = s
		case reqAdapterID:
			r.AdapterID = s
		case reqCategory:
			r.Identity.Category = s
		case reqName:
			r.Identity.Name = s
		case reqFacet:
			r.Facet = s
		case reqReplyID:
			r.ReplyID = s
		case reqReplyAddr:
			r.ReplyAddr = s
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func decodeReply(b []byte) (*types.Reply, error) {
	r := &types.Reply{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		if typ == protowire.VarintType {
			switch num {
			case repKind:
				if v > math.MaxUint8 {
					return fmt.Errorf("%w: %d", ErrInvalidKind, v)
				}
				r.Kind = types.ReplyKind(v)
			case repIsReplicas:
				r.IsReplicaGroup = v != 0
			}
			return nil
		}
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case repReplyID:
			r.ReplyID = string(raw)
		case repAdapterID:
			r.AdapterID = string(raw)
		case repCategory:
			r.Identity.Category = string(raw)
		case repName:
			r.Identity.Name = string(raw)
		case repProxy:
			p, err := decodeProxy(raw)
			if err != nil {
				return err
			}
			r.Proxy = p
		case repEndpoint:
			ep, err := types.ParseEndpoint(string(raw))
			if err != nil {
				return err
			}
			r.Endpoints = append(r.Endpoints, ep)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func decodeProxy(b []byte) (*types.Proxy, error) {
	p := &types.Proxy{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, _ uint64, raw []byte) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case pxCategory:
			p.Identity.Category = string(raw)
		case pxName:
			p.Identity.Name = string(raw)
		case pxFacet:
			p.Facet = string(raw)
		case pxAdapterID:
			p.AdapterID = string(raw)
		case pxEndpoint:
			ep, err := types.ParseEndpoint(string(raw))
			if err != nil {
				return err
			}
			p.Endpoints = append(p.Endpoints, ep)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// walk 遍历消息字段
//
// varint 字段通过 v 传入，length-delimited 字段通过 raw 传入，
// 其余类型的字段被跳过。
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("wire: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("wire: field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			if err := fn(num, typ, v, nil); err != nil {
				return err
			}
		case protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("wire: field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			if err := fn(num, typ, 0, raw); err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("wire: field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}
