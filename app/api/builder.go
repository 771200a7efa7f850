package api

import (
	httpx "gocrud/http"
)

// Resource 描述一个待注册的资源
type Resource struct {
	Path     string
	Register func(group httpx.IRouteGroup) error
}

// NewResource 用服务与路由配置构造资源，path 覆盖 config.BasePath
func NewResource[T any](path string, svc IResourceService[T], config *RouteConfig, middlewares ...httpx.Middleware) Resource {
	if config == nil {
		config = DefaultRouteConfig()
	}
	cfg := *config
	cfg.BasePath = path
	rb := NewRouteBuilder[T](svc, &cfg).Use(middlewares...)
	return Resource{Path: path, Register: rb.Register}
}

// RegisterResources 依次注册多个资源，遇到错误立即返回
func RegisterResources(group httpx.IRouteGroup, resources ...Resource) error {
	for _, r := range resources {
		if err := r.Register(group); err != nil {
			return err
		}
	}
	return nil
}
