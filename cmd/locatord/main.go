// Package main 提供 locatord 命令行入口
//
// locatord 运行组播应答方，发布本地 Registry，并可选开启管理接口
// 与 /metrics。其它进程通过管理接口登记自己的适配器端点。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	locator "github.com/dep2p/go-locator"
	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/pkg/lib/log"
	"github.com/dep2p/go-locator/pkg/types"
)

var logger = log.Logger("locator/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖 / 快速测试
//   配置文件（JSON/YAML）：持久化配置
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile  = flag.String("config", "", "配置文件路径（.json/.yaml）")
	preset      = flag.String("preset", "server", "预设配置 (client/server/colocated)")
	domainID    = flag.String("domain", "", "发现域")
	adminAddr   = flag.String("admin", "", "管理接口监听地址（覆盖配置文件）")
	metricsAddr = flag.String("metrics", "", "/metrics 监听地址（覆盖配置文件）")
	logLevel    = flag.String("log-level", "", "日志级别 debug/info/warn/error")
	logFormat   = flag.String("log-format", "", "日志格式 text/json")

	// 启动时登记的适配器，可多次指定：-adapter id[@group]=transport:host:port,...
	adapters adapterFlags

	showVersion = flag.Bool("version", false, "显示版本信息")
)

func init() {
	flag.Var(&adapters, "adapter", "启动时登记的适配器 id[@group]=endpoint[,endpoint]（可重复）")
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(locator.VersionInfo())
		return nil
	}

	cfg, err := buildConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log.Setup(os.Stderr, level, log.Format(cfg.Log.Format))

	svc, err := locator.New(locator.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("创建服务失败: %w", err)
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, a := range adapters {
		if err := svc.Registry().RegisterAdapterEndpoints(ctx, a.id, a.group, a.endpoints); err != nil {
			return fmt.Errorf("登记适配器 %s 失败: %w", a.id, err)
		}
	}

	logger.Info("启动 locatord", "version", locator.Version, "commit", locator.GitCommit)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	printInfo(svc)
	waitForSignal()

	fmt.Println("\n正在关闭...")
	return nil
}

// buildConfig 合成配置
//
// 优先级（从高到低）：命令行参数 > 环境变量 > 配置文件 > 预设 > 默认值
func buildConfig() (*config.Config, error) {
	cfg, err := baseConfig(*configFile, *preset, isFlagSet("preset"))
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if isFlagSet("domain") {
		cfg.Discovery.DomainID = *domainID
	}
	if *adminAddr != "" {
		cfg.Admin.Enabled = true
		cfg.Admin.ListenAddr = *adminAddr
	}
	if *metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddr = *metricsAddr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// waitForSignal 等待退出信号
func waitForSignal() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
}

// printInfo 打印运行信息
func printInfo(svc *locator.Service) {
	cfg := svc.Config()
	st := svc.Stats()

	fmt.Println()
	fmt.Printf("locatord %s\n", locator.Version)
	fmt.Printf("  域:       %q\n", cfg.Discovery.DomainID)
	if cfg.Discovery.EnableIPv4 {
		fmt.Printf("  组播:     %s\n", cfg.Discovery.MulticastIPv4)
	}
	if cfg.Discovery.EnableIPv6 {
		fmt.Printf("  组播:     %s\n", cfg.Discovery.MulticastIPv6)
	}
	fmt.Printf("  应答端点: %s\n", svc.ReplyAddr())
	if addr := svc.AdminAddr(); addr != "" {
		fmt.Printf("  管理接口: http://%s\n", addr)
	}
	fmt.Printf("  适配器:   %d（副本组 %d，知名对象 %d）\n", st.Adapters, st.ReplicaGroups, st.Objects)
	fmt.Println()
	fmt.Println("已启动，按 Ctrl+C 退出")
}

// ============================================================================
//                              -adapter 参数
// ============================================================================

type adapterSpec struct {
	id        string
	group     string
	endpoints []types.Endpoint
}

type adapterFlags []adapterSpec

func (f *adapterFlags) String() string {
	return fmt.Sprint(len(*f))
}

func (f *adapterFlags) Set(s string) error {
	a, err := parseAdapterSpec(s)
	if err != nil {
		return err
	}
	*f = append(*f, a)
	return nil
}
