// Package transport 实现发现协议的 UDP 组播与单播传输
//
// 组件：
//   - LookupProxy：绑定到某个本地接口的组播发送者，实现 interfaces.Lookup
//   - MulticastListener：加入组播组，把收到的请求交给 Responder
//   - ReplyEndpoint：单播应答端点，按应答身份分发到等待中的查询
//
// 接口枚举沿用 mDNS 的规则：跳过 down、回环与容器/虚拟网桥接口。
package transport
