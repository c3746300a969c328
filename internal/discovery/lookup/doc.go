// Package lookup 实现发现查询的请求方与应答关联
//
// 每个查询拥有一个临时应答身份（UUID）和一个 request 关联对象：
//
//	Sent → WaitingForReply → (ReplicaAggregation → Completed) | Completed
//
// Requester.Invoke 的流程：
//
//  1. 生成应答身份并注册到 ReplyEndpoint，任何退出路径都会注销
//  2. 最多 RetryCount 次尝试（总次数，不是失败后的重试次数）：
//     并发向所有 Lookup 发送；全部发送失败时立即以空结果结束；
//     否则等待合格应答或本次超时
//  3. 非副本应答立即完成；副本应答进入聚合窗口，
//     等待 max(1ms, 本次已耗时 × LatencyMultiplier) 后合并窗口内所有端点
//  4. 尝试用尽仍无应答时以空结果结束
//
// 调用方 ctx 取消只中止等待，不撤回已发出的数据报。
package lookup
