// Package types 定义 go-locator 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - endpoint.go - Endpoint 网络端点（"udp:host:4061"）
//   - identity.go - Identity 对象身份（"category/name"）
//   - proxy.go    - Proxy 对象代理（身份 + 适配器 ID 或端点）
//   - query.go    - QueryKind 查询种类
//   - reply.go    - Reply 应答联合类型
//   - errors.go   - 公共错误定义
//
// # 与 internal/core/wire 的区别
//
// pkg/types 定义内存结构，internal/core/wire 定义组播数据报的编码格式。
package types
