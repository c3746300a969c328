package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-locator/internal/admin"
	"github.com/dep2p/go-locator/internal/core/registry"
	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/types"
)

// stubLocator 固定结果的查找门面
type stubLocator struct {
	proxy   *types.Proxy
	eps     []types.Endpoint
	adapter string
}

func (s *stubLocator) FindAdapterByID(context.Context, string) (*types.Proxy, error) {
	return s.proxy, nil
}

func (s *stubLocator) FindObjectByID(_ context.Context, _ types.Identity, facet string) (*types.Proxy, error) {
	if s.proxy == nil {
		return nil, nil
	}
	return s.proxy.WithFacet(facet), nil
}

func (s *stubLocator) ResolveLocation(context.Context, []string) ([]types.Endpoint, error) {
	return s.eps, nil
}

func (s *stubLocator) ResolveWellKnownProxy(context.Context, types.Identity, string) (string, error) {
	return s.adapter, nil
}

func (s *stubLocator) Registry() interfaces.LocatorRegistry { return nil }

// TestRunLookup 测试查找命令输出
func TestRunLookup(t *testing.T) {
	ctx := context.Background()
	loc := &stubLocator{
		proxy:   &types.Proxy{AdapterID: "A", Endpoints: []types.Endpoint{types.MustParseEndpoint("tcp:h:1")}},
		eps:     []types.Endpoint{types.MustParseEndpoint("tcp:h:1")},
		adapter: "A",
	}

	var out bytes.Buffer
	require.NoError(t, runLookup(ctx, loc, "adapter", []string{"A"}, &out))
	assert.Contains(t, out.String(), `"adapter_id": "A"`)
	assert.Contains(t, out.String(), "tcp:h:1")

	out.Reset()
	require.NoError(t, runLookup(ctx, loc, "object", []string{"svc/printer", "admin"}, &out))
	assert.Contains(t, out.String(), `"facet": "admin"`)

	out.Reset()
	require.NoError(t, runLookup(ctx, loc, "location", []string{"A"}, &out))
	assert.Contains(t, out.String(), "tcp:h:1")

	out.Reset()
	require.NoError(t, runLookup(ctx, loc, "wellknown", []string{"svc/printer"}, &out))
	assert.Contains(t, out.String(), `"A"`)

	assert.Error(t, runLookup(ctx, loc, "bogus", []string{"A"}, &out))
	assert.Error(t, runLookup(ctx, loc, "adapter", nil, &out))
}

// TestRunLookup_NotFound 测试未找到映射为 errNotFound
func TestRunLookup_NotFound(t *testing.T) {
	ctx := context.Background()
	loc := &stubLocator{}
	var out bytes.Buffer

	for _, cmd := range []string{"adapter", "object", "location", "wellknown"} {
		err := runLookup(ctx, loc, cmd, []string{"svc/x"}, &out)
		assert.ErrorIs(t, err, errNotFound, cmd)
	}
	assert.Empty(t, out.String())
}

// TestRunAdmin 测试经管理接口登记与统计
func TestRunAdmin(t *testing.T) {
	reg := registry.New()
	srv := httptest.NewServer(admin.NewServer(reg).Handler())
	defer srv.Close()

	ctx := context.Background()
	c := admin.NewClient(srv.URL, srv.Client())

	var out bytes.Buffer
	require.NoError(t, runAdmin(ctx, c, "register", []string{"A@G=tcp:h:1,tcp:h:2"}, &out))
	eps, isGroup, ok := reg.FindAdapter("G")
	require.True(t, ok)
	assert.True(t, isGroup)
	assert.Len(t, eps, 2)

	out.Reset()
	require.NoError(t, runAdmin(ctx, c, "stats", nil, &out))
	assert.Contains(t, out.String(), `"adapters": 1`)
	assert.Contains(t, out.String(), `"replica_groups": 1`)

	assert.ErrorIs(t, runAdmin(ctx, c, "register", []string{"A=tcp:h:3"}, &out), registry.ErrDuplicateRegistration)
	assert.Error(t, runAdmin(ctx, c, "register", nil, &out))
	assert.Error(t, runAdmin(ctx, c, "register", []string{"=tcp:h:1"}, &out))
}
