// Package metrics 提供发现协议的 Prometheus 指标
//
// 指标（命名空间默认 locator）：
//
//	lookups_total{kind,outcome}        查询完成次数
//	lookup_duration_seconds{kind}      查询耗时
//	replies_total{kind}                收到的有效应答
//	replies_dropped_total              无人认领或不合格的应答
//	send_failures_total                单个接口发送失败
//	outstanding_requests               未完成查询数
//	requests_served_total{kind,result} Responder 处理的请求
//	registry_adapters / registry_replica_groups / registry_objects
//
// 未启用时使用 Nop，调用方无需判空。
package metrics
