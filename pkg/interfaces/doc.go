// Package interfaces 定义 go-locator 的公共接口
//
// 一个接口文件对应一组实现：
//   - lookup.go  - Lookup 查询能力、ReplyTarget 应答目标、ReplyEndpoint 应答端点
//     （internal/core/transport、internal/discovery/responder）
//   - locator.go - Locator 定位器门面与 LocatorRegistry 注册接口
//     （internal/discovery/locator、internal/core/registry、internal/admin）
//
// Requester 只依赖 Lookup 抽象：组播查询代理与同进程 Responder
// 都实现它，二者之间不持有对方的具体类型。
package interfaces
