package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dep2p/go-locator/internal/core/registry"
	"github.com/dep2p/go-locator/pkg/lib/log"
	"github.com/dep2p/go-locator/pkg/types"
)

var logger = log.Logger("admin")

// Server 管理接口 HTTP 服务
type Server struct {
	registry *registry.Registry
	metrics  http.Handler
	router   chi.Router

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// ServerOption Server 选项
type ServerOption func(*Server)

// WithMetricsHandler 挂载 /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer 创建管理接口服务
func NewServer(reg *registry.Registry, opts ...ServerOption) *Server {
	s := &Server{registry: reg}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	s.RegisterRoutes(r)
	s.router = r
	return s
}

// RegisterRoutes 注册管理路由
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/adapters/{id}", func(r chi.Router) {
		r.Put("/", s.handleRegisterAdapter)
		r.Delete("/", s.handleUnregisterAdapter)
		r.Get("/", s.handleGetAdapter)
	})
	r.Route("/objects/{identity}", func(r chi.Router) {
		r.Put("/", s.handlePutObject)
		r.Get("/", s.handleGetObject)
		r.Delete("/", s.handleDeleteObject)
	})
	r.Get("/stats", s.handleStats)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
}

// Handler 返回 HTTP 处理器
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 在 addr 上开始服务
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.srv, s.ln = srv, ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("管理接口异常退出", "error", err)
		}
	}()
	logger.Info("管理接口已启动", "addr", ln.Addr().String())
	return nil
}

// Addr 返回实际监听地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv, s.ln = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// ============================================================================
//                              适配器
// ============================================================================

func (s *Server) handleRegisterAdapter(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	var body AdapterRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err := s.registry.RegisterAdapterEndpoints(req.Context(), id, body.ReplicaGroupID, body.Endpoints)
	switch {
	case errors.Is(err, registry.ErrDuplicateRegistration):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleUnregisterAdapter(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	group := req.URL.Query().Get("replica_group")

	if err := s.registry.UnregisterAdapterEndpoints(req.Context(), id, group); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetAdapter(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	eps, isGroup, ok := s.registry.FindAdapter(id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("adapter not found"))
		return
	}
	writeJSON(w, http.StatusOK, &AdapterResponse{
		AdapterID:      id,
		Endpoints:      eps,
		IsReplicaGroup: isGroup,
	})
}

// ============================================================================
//                              知名对象
// ============================================================================

func identityParam(req *http.Request) (types.Identity, error) {
	raw, err := url.PathUnescape(chi.URLParam(req, "identity"))
	if err != nil {
		return types.Identity{}, err
	}
	return types.ParseIdentity(raw)
}

func (s *Server) handlePutObject(w http.ResponseWriter, req *http.Request) {
	id, err := identityParam(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var proxy types.Proxy
	if err := json.NewDecoder(req.Body).Decode(&proxy); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.registry.AddObject(req.Context(), id, &proxy); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetObject(w http.ResponseWriter, req *http.Request) {
	id, err := identityParam(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	proxy, ok := s.registry.FindObject(req.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("object not found"))
		return
	}
	writeJSON(w, http.StatusOK, proxy)
}

func (s *Server) handleDeleteObject(w http.ResponseWriter, req *http.Request) {
	id, err := identityParam(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.registry.RemoveObject(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	st := s.registry.Stats()
	writeJSON(w, http.StatusOK, &StatsResponse{
		Adapters:      st.Adapters,
		ReplicaGroups: st.ReplicaGroups,
		Objects:       st.Objects,
	})
}

// ============================================================================
//                              辅助函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("写响应失败", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, &ErrorResponse{Error: err.Error()})
}

// requestLogger 记录每个请求
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("管理请求",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start))
	})
}
