package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/pkg/types"
)

// ============================================================================
//                              基础配置
// ============================================================================

// baseConfig 合成预设与配置文件
//
// 未指定配置文件或显式设置了 -preset 时先应用预设，配置文件再覆盖其上；
// 只给配置文件时以默认值为底。
func baseConfig(path, preset string, presetSet bool) (*config.Config, error) {
	cfg := config.NewConfig()
	if path == "" || presetSet {
		if err := config.ApplyPreset(cfg, preset); err != nil {
			return nil, err
		}
	}
	if path != "" {
		if err := config.LoadInto(cfg, path); err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}
	return cfg, nil
}

// ============================================================================
//                              环境变量（CLI 专用）
// ============================================================================

// 环境变量名
const (
	envPrefix            = "LOCATOR_"
	envDomainID          = "DOMAIN_ID"
	envInterface         = "INTERFACE"
	envTimeout           = "TIMEOUT"
	envRetryCount        = "RETRY_COUNT"
	envLatencyMultiplier = "LATENCY_MULTIPLIER"
	envAdminAddr         = "ADMIN_ADDR"
	envLogLevel          = "LOG_LEVEL"
)

// applyEnvOverrides 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
// 无法解析的数值被忽略。
func applyEnvOverrides(cfg *config.Config) {
	if v, ok := lookupEnv(envDomainID); ok {
		cfg.Discovery.DomainID = v
	}
	if v, ok := lookupEnv(envInterface); ok {
		cfg.Discovery.Interface = v
	}
	if v, ok := lookupEnv(envTimeout); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Discovery.Timeout = config.Duration(d)
		}
	}
	if v, ok := lookupEnv(envRetryCount); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Discovery.RetryCount = n
		}
	}
	if v, ok := lookupEnv(envLatencyMultiplier); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Discovery.LatencyMultiplier = n
		}
	}
	if v, ok := lookupEnv(envAdminAddr); ok {
		cfg.Admin.Enabled = true
		cfg.Admin.ListenAddr = v
	}
	if v, ok := lookupEnv(envLogLevel); ok {
		cfg.Log.Level = v
	}
}

func lookupEnv(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(envPrefix + name))
	return v, v != ""
}

// parseAdapterSpec 解析 id[@group]=endpoint[,endpoint]
func parseAdapterSpec(s string) (adapterSpec, error) {
	head, list, ok := strings.Cut(s, "=")
	if !ok {
		return adapterSpec{}, fmt.Errorf("invalid adapter %q: want id[@group]=endpoints", s)
	}
	id, group, _ := strings.Cut(head, "@")
	if id == "" {
		return adapterSpec{}, fmt.Errorf("invalid adapter %q: empty id", s)
	}

	eps, err := types.ParseEndpoints(splitAndTrim(list, ","))
	if err != nil {
		return adapterSpec{}, fmt.Errorf("invalid adapter %q: %w", s, err)
	}
	return adapterSpec{id: id, group: group, endpoints: eps}, nil
}

// splitAndTrim 分割字符串并去除空白
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
