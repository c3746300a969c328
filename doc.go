// Package locator 提供基于组播的定位发现服务
//
// 客户端在没有配置中心的情况下，通过向组播组发送查询来定位
// 服务端的对象适配器、副本组与知名对象。服务端在本地 Registry 中
// 登记自己的适配器端点，由 Responder 单播应答匹配的查询。
//
// # 快速开始
//
//	svc, err := locator.New(
//	    locator.WithDomainID("prod"),
//	    locator.WithTimeout(300*time.Millisecond),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := svc.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	// 服务端：发布本地适配器
//	eps := []types.Endpoint{types.MustParseEndpoint("tcp:10.0.0.5:4063")}
//	_ = svc.Registry().RegisterAdapterEndpoints(ctx, "printer-1", "printers", eps)
//
//	// 客户端：按适配器 ID 或副本组 ID 查找
//	proxy, err := svc.Locator().FindAdapterByID(ctx, "printers")
//
// # 组件
//
//	┌──────────────────────────────────────────────────────────┐
//	│  Service       locator.New() / Start() / Close()          │
//	├──────────────────────────────────────────────────────────┤
//	│  Locator       查找门面 + 结果缓存                         │
//	│  Requester     关联引擎：应答身份、超时、重试、副本聚合      │
//	├──────────────────────────────────────────────────────────┤
//	│  Responder     本地 Registry 的组播应答方                  │
//	│  Registry      适配器 / 副本组 / 知名对象目录               │
//	├──────────────────────────────────────────────────────────┤
//	│  Transport     LookupProxy / MulticastListener / 应答端点  │
//	│  Wire          数据报编解码                                │
//	└──────────────────────────────────────────────────────────┘
//
// 未找到不是错误：查找方法在超时耗尽后返回 nil 结果与 nil 错误。
package locator
