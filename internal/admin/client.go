package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dep2p/go-locator/internal/core/registry"
	"github.com/dep2p/go-locator/pkg/interfaces"
	"github.com/dep2p/go-locator/pkg/types"
)

// 确保实现了接口
var _ interfaces.LocatorRegistry = (*Client)(nil)

// ErrNotFound 远端返回 404
var ErrNotFound = errors.New("admin: not found")

// APIError 管理接口错误响应
type APIError struct {
	StatusCode int
	Message    string
}

// Error 实现 error 接口
func (e *APIError) Error() string {
	return fmt.Sprintf("admin: %d %s", e.StatusCode, e.Message)
}

// Client 远程 Registry 客户端
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient 创建客户端，baseURL 形如 "http://127.0.0.1:4062"
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// RegisterAdapterEndpoints 实现 interfaces.LocatorRegistry
func (c *Client) RegisterAdapterEndpoints(ctx context.Context, adapterID, replicaGroupID string, eps []types.Endpoint) error {
	body := &AdapterRequest{ReplicaGroupID: replicaGroupID, Endpoints: eps}
	err := c.do(ctx, http.MethodPut, "/adapters/"+url.PathEscape(adapterID), body, nil)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		return &registry.RegistrationError{Op: "register", AdapterID: adapterID, Err: registry.ErrDuplicateRegistration}
	}
	return err
}

// UnregisterAdapterEndpoints 实现 interfaces.LocatorRegistry
func (c *Client) UnregisterAdapterEndpoints(ctx context.Context, adapterID, replicaGroupID string) error {
	path := "/adapters/" + url.PathEscape(adapterID)
	if replicaGroupID != "" {
		path += "?replica_group=" + url.QueryEscape(replicaGroupID)
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// AddObject 实现 interfaces.LocatorRegistry
func (c *Client) AddObject(ctx context.Context, id types.Identity, proxy *types.Proxy) error {
	if proxy == nil {
		return c.do(ctx, http.MethodDelete, objectPath(id), nil, nil)
	}
	return c.do(ctx, http.MethodPut, objectPath(id), proxy, nil)
}

// SetAdapterDirectProxy 实现 interfaces.LocatorRegistry
func (c *Client) SetAdapterDirectProxy(ctx context.Context, adapterID string, proxy *types.Proxy) error {
	return c.SetReplicatedAdapterDirectProxy(ctx, adapterID, "", proxy)
}

// SetReplicatedAdapterDirectProxy 实现 interfaces.LocatorRegistry
func (c *Client) SetReplicatedAdapterDirectProxy(ctx context.Context, adapterID, replicaGroupID string, proxy *types.Proxy) error {
	if proxy == nil {
		return c.UnregisterAdapterEndpoints(ctx, adapterID, replicaGroupID)
	}
	return c.RegisterAdapterEndpoints(ctx, adapterID, replicaGroupID, proxy.Endpoints)
}

// FindAdapter 查询远端目录中的适配器
func (c *Client) FindAdapter(ctx context.Context, adapterID string) (*AdapterResponse, error) {
	var out AdapterResponse
	if err := c.do(ctx, http.MethodGet, "/adapters/"+url.PathEscape(adapterID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindObject 查询远端目录中的知名对象
func (c *Client) FindObject(ctx context.Context, id types.Identity) (*types.Proxy, error) {
	var out types.Proxy
	if err := c.do(ctx, http.MethodGet, objectPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats 查询远端目录统计
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	var out StatsResponse
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func objectPath(id types.Identity) string {
	return "/objects/" + url.PathEscape(id.String())
}

// do 发送请求；out 非 nil 时解码 JSON 响应
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: e.Error}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
