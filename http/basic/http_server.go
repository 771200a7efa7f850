// Package basic 基于标准库 net/http（Go 1.22 路由模式）的 HTTP 实现
package basic

import (
	"context"
	"net/http"
	"strings"
	"sync"

	httpx "gocrud/http"
	"gocrud/logging"
)

// HttpServer 基于标准库 net/http 的 IHttpServer 实现
type HttpServer struct {
	config      httpx.WebConfig
	logger      logging.Logger
	server      *http.Server
	routes      []*route
	middlewares []httpx.Middleware
	mux         *http.ServeMux
	once        sync.Once
	mu          sync.RWMutex
}

type route struct {
	method      string
	pattern     string
	handler     httpx.HttpHandler
	middlewares []httpx.Middleware
}

// NewHTTPServer 创建基于 net/http 的服务器
func NewHTTPServer(config httpx.WebConfig, logger logging.Logger) *HttpServer {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &HttpServer{
		config: config,
		logger: logger.WithFields(logging.Component("http")),
	}
}

func (s *HttpServer) GET(path string, handler httpx.HttpHandler) httpx.IRouteGroup {
	return s.addRoute(http.MethodGet, path, handler, nil)
}
func (s *HttpServer) POST(path string, handler httpx.HttpHandler) httpx.IRouteGroup {
	return s.addRoute(http.MethodPost, path, handler, nil)
}
func (s *HttpServer) PUT(path string, handler httpx.HttpHandler) httpx.IRouteGroup {
	return s.addRoute(http.MethodPut, path, handler, nil)
}
func (s *HttpServer) DELETE(path string, handler httpx.HttpHandler) httpx.IRouteGroup {
	return s.addRoute(http.MethodDelete, path, handler, nil)
}
func (s *HttpServer) PATCH(path string, handler httpx.HttpHandler) httpx.IRouteGroup {
	return s.addRoute(http.MethodPatch, path, handler, nil)
}

func (s *HttpServer) addRoute(method, path string, handler httpx.HttpHandler, mws []httpx.Middleware) *HttpServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, &route{method: method, pattern: path, handler: handler, middlewares: mws})
	return s
}

// Group 路由分组
func (s *HttpServer) Group(prefix string) httpx.IRouteGroup {
	return &RouteGroup{prefix: prefix, server: s}
}

// Use 全局中间件
func (s *HttpServer) Use(middleware ...httpx.Middleware) httpx.IRouteGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middlewares = append(s.middlewares, middleware...)
	return s
}

// Handler 注册全部路由并返回 http.Handler；首次调用后新增的路由不再生效
func (s *HttpServer) Handler() http.Handler {
	s.once.Do(s.registerRoutes)
	if s.config.MaxBodyBytes <= 0 {
		return s.mux
	}
	limit := s.config.MaxBodyBytes
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		s.mux.ServeHTTP(w, r)
	})
}

func (s *HttpServer) Start(addr string) error {
	if addr == "" {
		addr = s.config.Addr
	}
	s.mu.Lock()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Info(context.Background(), "http server listening", logging.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HttpServer) Stop(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// registerRoutes 以 "METHOD /path/{param}" 形式注册到 ServeMux
func (s *HttpServer) registerRoutes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mux = http.NewServeMux()
	for _, r := range s.routes {
		s.mux.HandleFunc(r.method+" "+convertPathPattern(r.pattern), s.createHandler(r))
	}
}

// convertPathPattern 将 :id 转为 {id}
func convertPathPattern(pattern string) string {
	if pattern == "" {
		return "/"
	}
	parts := strings.Split(pattern, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, ":") {
			parts[i] = "{" + p[1:] + "}"
		}
	}
	return strings.Join(parts, "/")
}

func (s *HttpServer) createHandler(r *route) http.HandlerFunc {
	middlewares := append(append([]httpx.Middleware{}, s.middlewares...), r.middlewares...)
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := NewBaseHttpContext(w, req)
		parsePathParams(ctx, r.pattern, req)
		if err := executeMiddlewareChain(ctx, middlewares, r.handler); err != nil {
			_ = WriteErrorResponse(ctx, err)
		}
	}
}

func parsePathParams(ctx *HttpContext, pattern string, req *http.Request) {
	for _, part := range strings.Split(strings.Trim(pattern, "/"), "/") {
		if name, ok := strings.CutPrefix(part, ":"); ok {
			if v := req.PathValue(name); v != "" {
				ctx.SetParam(name, v)
			}
		}
	}
}

func executeMiddlewareChain(ctx httpx.IHttpContext, middlewares []httpx.Middleware, handler httpx.HttpHandler) error {
	if ctx.IsAborted() {
		return nil
	}
	if len(middlewares) == 0 {
		return handler(ctx)
	}
	return middlewares[0](ctx, func() error { return executeMiddlewareChain(ctx, middlewares[1:], handler) })
}

// RouteGroup 实现 IRouteGroup
type RouteGroup struct {
	prefix      string
	server      *HttpServer
	middlewares []httpx.Middleware
}

func (g *RouteGroup) GET(path string, h httpx.HttpHandler) httpx.IRouteGroup {
	return g.add(http.MethodGet, path, h)
}
func (g *RouteGroup) POST(path string, h httpx.HttpHandler) httpx.IRouteGroup {
	return g.add(http.MethodPost, path, h)
}
func (g *RouteGroup) PUT(path string, h httpx.HttpHandler) httpx.IRouteGroup {
	return g.add(http.MethodPut, path, h)
}
func (g *RouteGroup) DELETE(path string, h httpx.HttpHandler) httpx.IRouteGroup {
	return g.add(http.MethodDelete, path, h)
}
func (g *RouteGroup) PATCH(path string, h httpx.HttpHandler) httpx.IRouteGroup {
	return g.add(http.MethodPatch, path, h)
}

// Group 子分组继承父分组的中间件
func (g *RouteGroup) Group(prefix string) httpx.IRouteGroup {
	return &RouteGroup{
		prefix:      g.prefix + prefix,
		server:      g.server,
		middlewares: append([]httpx.Middleware{}, g.middlewares...),
	}
}

func (g *RouteGroup) Use(mw ...httpx.Middleware) httpx.IRouteGroup {
	g.middlewares = append(g.middlewares, mw...)
	return g
}

func (g *RouteGroup) add(method, path string, h httpx.HttpHandler) httpx.IRouteGroup {
	full := strings.TrimSuffix(g.prefix+path, "/")
	if full == "" {
		full = "/"
	}
	g.server.addRoute(method, full, h, append([]httpx.Middleware{}, g.middlewares...))
	return g
}
