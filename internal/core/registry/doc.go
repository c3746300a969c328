// Package registry 实现定位器的内存目录
//
// Registry 维护三张表：
//   - 适配器：adapterId → 端点集合（可选所属副本组）
//   - 副本组：replicaGroupId → 成员适配器（按加入顺序）
//   - 知名对象：identity → 代理
//
// 副本组在第一个成员注册时创建，最后一个成员注销时删除，
// 空副本组对调用方不可见。
//
// # 知名对象解析
//
// FindObject 先查知名对象表；未命中时依次以每个副本组、每个适配器
// 作为候选（按注册顺序），用 Prober 做存在性探测，返回第一个成功者。
// 探测在锁外执行，失败被吞掉并继续下一个候选。
//
// # 并发安全
//
// 一把互斥锁保护所有表，锁只在表操作期间持有，从不跨越网络 I/O。
package registry
