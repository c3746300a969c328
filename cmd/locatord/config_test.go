package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-locator/config"
	"github.com/dep2p/go-locator/pkg/types"
)

// TestParseAdapterSpec 测试 -adapter 参数解析
func TestParseAdapterSpec(t *testing.T) {
	a, err := parseAdapterSpec("A@G=tcp:h:1, udp:h:2")
	require.NoError(t, err)
	assert.Equal(t, "A", a.id)
	assert.Equal(t, "G", a.group)
	assert.Equal(t, []types.Endpoint{
		types.MustParseEndpoint("tcp:h:1"),
		types.MustParseEndpoint("udp:h:2"),
	}, a.endpoints)

	a, err = parseAdapterSpec("B=tcp:h:1")
	require.NoError(t, err)
	assert.Empty(t, a.group)

	for _, bad := range []string{"B", "=tcp:h:1", "B=nonsense"} {
		_, err := parseAdapterSpec(bad)
		assert.Error(t, err, bad)
	}
}

// TestApplyEnvOverrides 测试环境变量覆盖
func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("LOCATOR_DOMAIN_ID", "prod")
	t.Setenv("LOCATOR_TIMEOUT", "1s")
	t.Setenv("LOCATOR_RETRY_COUNT", "5")
	t.Setenv("LOCATOR_LATENCY_MULTIPLIER", "bogus")
	t.Setenv("LOCATOR_ADMIN_ADDR", "127.0.0.1:9999")

	cfg := config.NewConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "prod", cfg.Discovery.DomainID)
	assert.Equal(t, time.Second, cfg.Discovery.Timeout.Duration())
	assert.Equal(t, 5, cfg.Discovery.RetryCount)
	assert.Equal(t, config.DefaultLatencyMultiplier, cfg.Discovery.LatencyMultiplier)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, "127.0.0.1:9999", cfg.Admin.ListenAddr)
}

// TestBaseConfig_FileOverPreset 测试配置文件覆盖显式预设
func TestBaseConfig_FileOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locatord.yaml")
	data := "admin:\n  enabled: true\n  listen_addr: 127.0.0.1:4062\ndiscovery:\n  domain_id: lab\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	// client 预设关闭管理接口，文件重新打开
	cfg, err := baseConfig(path, "client", true)
	require.NoError(t, err)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, "127.0.0.1:4062", cfg.Admin.ListenAddr)
	assert.Equal(t, "lab", cfg.Discovery.DomainID)
	// 文件未涉及的字段保留预设值
	assert.False(t, cfg.Discovery.EnableResponder)

	// 未显式设置预设时以默认值为底
	cfg, err = baseConfig(path, "client", false)
	require.NoError(t, err)
	assert.True(t, cfg.Discovery.EnableResponder)

	cfg, err = baseConfig("", "client", false)
	require.NoError(t, err)
	assert.False(t, cfg.Admin.Enabled)

	_, err = baseConfig("", "bogus", true)
	assert.Error(t, err)
}
