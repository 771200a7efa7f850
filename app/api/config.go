// Package api 提供 RESTful API 路由构建功能
package api

import (
	httpx "gocrud/http"
	"gocrud/http/basic"
)

// RouteConfig 路由配置
type RouteConfig struct {
	// BasePath 资源路径，例如 /posts
	BasePath string

	// EnableTrash 注册回收站相关路由（/trashed、/with-trashed、restore、force）
	EnableTrash bool

	// ErrorHandler 自定义错误输出，默认 basic.WriteErrorResponse
	ErrorHandler func(ctx httpx.IHttpContext, err error) error

	Middlewares []httpx.Middleware
}

// DefaultRouteConfig 默认路由配置
func DefaultRouteConfig() *RouteConfig {
	return &RouteConfig{
		EnableTrash:  true,
		ErrorHandler: basic.WriteErrorResponse,
	}
}
