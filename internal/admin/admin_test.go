package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-locator/internal/core/metrics"
	"github.com/dep2p/go-locator/internal/core/registry"
	"github.com/dep2p/go-locator/pkg/types"
)

func newTestServer(t *testing.T, opts ...ServerOption) (*registry.Registry, *Client) {
	t.Helper()
	reg := registry.New()
	srv := httptest.NewServer(NewServer(reg, opts...).Handler())
	t.Cleanup(srv.Close)
	return reg, NewClient(srv.URL, srv.Client())
}

// TestClient_RegisterAdapter 测试经 HTTP 注册、查询与注销适配器
func TestClient_RegisterAdapter(t *testing.T) {
	reg, c := newTestServer(t)
	ctx := context.Background()
	eps := []types.Endpoint{types.MustParseEndpoint("udp:host:4061")}

	require.NoError(t, c.RegisterAdapterEndpoints(ctx, "A", "G", eps))

	local, isGroup, ok := reg.FindAdapter("A")
	require.True(t, ok)
	assert.False(t, isGroup)
	assert.Equal(t, eps, local)

	remote, err := c.FindAdapter(ctx, "G")
	require.NoError(t, err)
	assert.True(t, remote.IsReplicaGroup)
	assert.Equal(t, eps, remote.Endpoints)

	require.NoError(t, c.UnregisterAdapterEndpoints(ctx, "A", "G"))
	_, err = c.FindAdapter(ctx, "G")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestClient_DuplicateRegistration 测试重复注册映射为 ErrDuplicateRegistration
func TestClient_DuplicateRegistration(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()
	eps := []types.Endpoint{types.MustParseEndpoint("tcp:h:1")}

	require.NoError(t, c.RegisterAdapterEndpoints(ctx, "A", "", eps))
	err := c.RegisterAdapterEndpoints(ctx, "A", "", eps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrDuplicateRegistration))
}

// TestClient_SetAdapterDirectProxy 测试直接代理注册与 nil 注销
func TestClient_SetAdapterDirectProxy(t *testing.T) {
	reg, c := newTestServer(t)
	ctx := context.Background()

	p := &types.Proxy{Endpoints: []types.Endpoint{types.MustParseEndpoint("tcp:h:1")}}
	require.NoError(t, c.SetReplicatedAdapterDirectProxy(ctx, "A", "G", p))
	_, _, ok := reg.FindAdapter("G")
	assert.True(t, ok)

	require.NoError(t, c.SetAdapterDirectProxy(ctx, "A", nil))
	_, _, ok = reg.FindAdapter("A")
	assert.False(t, ok)
	_, _, ok = reg.FindAdapter("G")
	assert.False(t, ok)
}

// TestClient_Objects 测试带分类的对象身份经路径转义往返
func TestClient_Objects(t *testing.T) {
	reg, c := newTestServer(t)
	ctx := context.Background()
	id := types.Identity{Category: "svc", Name: "printer"}

	require.NoError(t, c.AddObject(ctx, id, &types.Proxy{AdapterID: "A", Facet: "f"}))

	local, ok := reg.FindObject(ctx, id)
	require.True(t, ok)
	assert.Equal(t, "A", local.AdapterID)

	remote, err := c.FindObject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, remote.Identity)
	assert.Equal(t, "A", remote.AdapterID)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Objects)

	require.NoError(t, c.AddObject(ctx, id, nil))
	_, err = c.FindObject(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestServer_BadRequests 测试非法请求体与非法身份
func TestServer_BadRequests(t *testing.T) {
	reg := registry.New()
	h := NewServer(reg).Handler()

	req := httptest.NewRequest(http.MethodPut, "/adapters/A", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/objects/cat%2F", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestServer_Metrics 测试挂载 /metrics
func TestServer_Metrics(t *testing.T) {
	col := metrics.NewCollector("locator")
	h := NewServer(registry.New(), WithMetricsHandler(col.Handler())).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "locator_outstanding_requests")
}
