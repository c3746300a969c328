// Package admin 提供 Registry 的远程管理接口
//
// HTTP 路由（JSON）：
//
//	PUT    /adapters/{id}       注册适配器端点（重复注册返回 409）
//	DELETE /adapters/{id}       注销适配器（?replica_group=G）
//	GET    /adapters/{id}       查询适配器或副本组端点
//	PUT    /objects/{identity}  添加或更新知名对象
//	GET    /objects/{identity}  解析知名对象
//	DELETE /objects/{identity}  移除知名对象
//	GET    /stats               目录统计
//	GET    /metrics             Prometheus 指标（启用时）
//
// identity 形如 "category/name"，路径中需要转义。
// Client 通过这些路由实现 interfaces.LocatorRegistry，
// 供服务端向远程 locatord 发布自身适配器。
package admin
