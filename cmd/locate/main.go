// Package main 提供 locate 命令行工具
//
// 用法：
//
//	locate [flags] adapter   <id>
//	locate [flags] object    <category/name> [facet]
//	locate [flags] location  <id>
//	locate [flags] wellknown <category/name>
//	locate -admin <addr> register <id[@group]=endpoint[,endpoint]>
//	locate -admin <addr> stats
//
// 查找命令发送一次组播查询并打印结果，未找到时退出码为 2。
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	locator "github.com/dep2p/go-locator"
	"github.com/dep2p/go-locator/internal/admin"
	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/lib/log"
	"github.com/dep2p/go-locator/pkg/types"
)

var (
	domainID   = flag.String("domain", "", "发现域")
	timeout    = flag.Duration("timeout", 300*time.Millisecond, "单次尝试超时")
	retryCount = flag.Int("retry", 3, "总尝试次数")
	multiplier = flag.Int("latency-multiplier", 1, "副本聚合延迟倍数")
	adminAddr  = flag.String("admin", "", "管理接口地址（register/stats 使用）")
	verbose    = flag.Bool("v", false, "输出调试日志")
)

// errNotFound 查找无结果
var errNotFound = errors.New("not found")

func main() {
	flag.Parse()

	err := run(context.Background(), flag.Args(), os.Stdout)
	switch {
	case errors.Is(err, errNotFound):
		fmt.Fprintln(os.Stderr, "未找到")
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		flag.Usage()
		return errors.New("missing command")
	}

	level := log.LevelWarn
	if *verbose {
		level = log.LevelDebug
	}
	log.SetOutputWithLevel(os.Stderr, level)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register", "stats":
		if *adminAddr == "" {
			return fmt.Errorf("%s requires -admin", cmd)
		}
		return runAdmin(ctx, admin.NewClient(*adminAddr, nil), cmd, rest, out)
	}

	svc, err := locator.New(
		locator.WithDomainID(*domainID),
		locator.WithTimeout(*timeout),
		locator.WithRetryCount(*retryCount),
		locator.WithLatencyMultiplier(*multiplier),
		locator.WithPreset("client"),
	)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	return runLookup(ctx, svc.Locator(), cmd, rest, out)
}

// runLookup 执行一次查找并以 JSON 打印结果
func runLookup(ctx context.Context, loc interfaces.Locator, cmd string, args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("%s requires an argument", cmd)
	}

	var result any
	switch cmd {
	case "adapter":
		p, err := loc.FindAdapterByID(ctx, args[0])
		if err != nil {
			return err
		}
		if p != nil {
			result = p
		}
	case "object":
		id, err := types.ParseIdentity(args[0])
		if err != nil {
			return err
		}
		facet := ""
		if len(args) > 1 {
			facet = args[1]
		}
		p, err := loc.FindObjectByID(ctx, id, facet)
		if err != nil {
			return err
		}
		if p != nil {
			result = p
		}
	case "location":
		eps, err := loc.ResolveLocation(ctx, strings.Split(args[0], "/"))
		if err != nil {
			return err
		}
		if len(eps) > 0 {
			result = types.EndpointStrings(eps)
		}
	case "wellknown":
		id, err := types.ParseIdentity(args[0])
		if err != nil {
			return err
		}
		adapterID, err := loc.ResolveWellKnownProxy(ctx, id, "")
		if err != nil {
			return err
		}
		if adapterID != "" {
			result = adapterID
		}
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	if result == nil {
		return errNotFound
	}
	return printJSON(out, result)
}

// runAdmin 通过管理接口登记适配器或查询统计
func runAdmin(ctx context.Context, c *admin.Client, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "stats":
		st, err := c.Stats(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, st)
	default:
		if len(args) < 1 {
			return errors.New("register requires id[@group]=endpoints")
		}
		id, group, eps, err := parseRegistration(args[0])
		if err != nil {
			return err
		}
		if err := c.RegisterAdapterEndpoints(ctx, id, group, eps); err != nil {
			return err
		}
		fmt.Fprintf(out, "已登记 %s\n", id)
		return nil
	}
}

// parseRegistration 解析 id[@group]=endpoint[,endpoint]
func parseRegistration(s string) (id, group string, eps []types.Endpoint, err error) {
	head, list, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", nil, fmt.Errorf("invalid registration %q", s)
	}
	id, group, _ = strings.Cut(head, "@")
	if id == "" {
		return "", "", nil, fmt.Errorf("invalid registration %q: empty id", s)
	}
	eps, err = types.ParseEndpoints(strings.Split(list, ","))
	return id, group, eps, err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
