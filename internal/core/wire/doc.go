// Package wire 定义发现协议的数据报编码
//
// 数据报是一个 protobuf wire 格式的信封：
//
//	1 version  varint（当前为 1）
//	2 request  message
//	3 reply    message
//
// 请求字段：
//
//	1 kind  2 domain_id  3 adapter_id  4 category  5 name
//	6 facet  7 reply_id  8 reply_addr
//
// 应答字段：
//
//	1 kind  2 reply_id  3 adapter_id  4 category  5 name
//	6 proxy { 1 category 2 name 3 facet 4 adapter_id 5 repeated endpoint }
//	7 repeated endpoint  8 is_replica_group
//
// 端点编码为 "transport:host:port" 字符串。未知字段被跳过，
// 未知版本的信封被丢弃。
package wire
