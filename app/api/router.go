package api

import (
	"context"
	"fmt"

	"gocrud/domain/crud"
	"gocrud/errors"
	httpx "gocrud/http"
	"gocrud/http/basic"
)

// IResourceService 路由依赖的服务能力，*crud.Service[T] 实现了该接口
type IResourceService[T any] interface {
	Index(ctx context.Context, params crud.Params) (*crud.IndexResult[T], error)
	IndexWithTrashed(ctx context.Context, params crud.Params) (*crud.IndexResult[T], error)
	IndexTrashed(ctx context.Context, params crud.Params) (*crud.IndexResult[T], error)
	Show(ctx context.Context, id any, params crud.Params) (*T, error)
	Store(ctx context.Context, payload map[string]any) (*T, error)
	Update(ctx context.Context, id any, payload map[string]any) (*T, error)
	Destroy(ctx context.Context, id any) (*T, error)
	Restore(ctx context.Context, id any) (*T, error)
	ForceDelete(ctx context.Context, id any) (*T, error)
}

var _ IResourceService[struct{}] = (*crud.Service[struct{}])(nil)

// RouteBuilder 把一个资源服务注册为 RESTful 路由：
//
//	GET    /base                 列表
//	GET    /base/trashed         回收站列表
//	GET    /base/with-trashed    包含已删除记录的列表
//	GET    /base/:id             详情
//	POST   /base                 创建
//	PUT    /base/:id             更新
//	DELETE /base/:id             删除（软删除模型移入回收站）
//	PATCH  /base/:id/restore     恢复
//	DELETE /base/:id/force       物理删除
type RouteBuilder[T any] struct {
	config      *RouteConfig
	middlewares []httpx.Middleware
	service     IResourceService[T]
}

// NewRouteBuilder 创建路由构建器，config 为 nil 时使用默认配置
func NewRouteBuilder[T any](svc IResourceService[T], config *RouteConfig) *RouteBuilder[T] {
	if config == nil {
		config = DefaultRouteConfig()
	}
	if config.ErrorHandler == nil {
		config.ErrorHandler = basic.WriteErrorResponse
	}
	return &RouteBuilder[T]{config: config, service: svc}
}

// Use 注册中间件
func (rb *RouteBuilder[T]) Use(middlewares ...httpx.Middleware) *RouteBuilder[T] {
	rb.middlewares = append(rb.middlewares, middlewares...)
	return rb
}

// Register 注册到路由组
func (rb *RouteBuilder[T]) Register(group httpx.IRouteGroup) error {
	if rb.service == nil {
		return fmt.Errorf("service cannot be nil")
	}
	base := rb.config.BasePath

	group.GET(base, rb.wrapHandler(rb.handleIndex))
	if rb.config.EnableTrash {
		group.GET(base+"/trashed", rb.wrapHandler(rb.handleTrashed))
		group.GET(base+"/with-trashed", rb.wrapHandler(rb.handleWithTrashed))
	}
	group.GET(base+"/:id", rb.wrapHandler(rb.handleShow))
	group.POST(base, rb.wrapHandler(rb.handleStore))
	group.PUT(base+"/:id", rb.wrapHandler(rb.handleUpdate))
	group.DELETE(base+"/:id", rb.wrapHandler(rb.handleDestroy))
	if rb.config.EnableTrash {
		group.PATCH(base+"/:id/restore", rb.wrapHandler(rb.handleRestore))
		group.DELETE(base+"/:id/force", rb.wrapHandler(rb.handleForceDelete))
	}
	return nil
}

// wrapHandler 包装处理器，应用中间件和错误处理
func (rb *RouteBuilder[T]) wrapHandler(handler httpx.HttpHandler) httpx.HttpHandler {
	middlewares := append(append([]httpx.Middleware{}, rb.middlewares...), rb.config.Middlewares...)
	executor := handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		mw := middlewares[i]
		next := executor
		executor = func(ctx httpx.IHttpContext) error {
			return mw(ctx, func() error { return next(ctx) })
		}
	}
	return func(c httpx.IHttpContext) error {
		if err := executor(c); err != nil {
			return rb.config.ErrorHandler(c, err)
		}
		return nil
	}
}

func (rb *RouteBuilder[T]) handleIndex(c httpx.IHttpContext) error {
	return rb.respondIndex(c, rb.service.Index)
}

func (rb *RouteBuilder[T]) handleTrashed(c httpx.IHttpContext) error {
	return rb.respondIndex(c, rb.service.IndexTrashed)
}

func (rb *RouteBuilder[T]) handleWithTrashed(c httpx.IHttpContext) error {
	return rb.respondIndex(c, rb.service.IndexWithTrashed)
}

func (rb *RouteBuilder[T]) respondIndex(
	c httpx.IHttpContext,
	index func(context.Context, crud.Params) (*crud.IndexResult[T], error),
) error {
	result, err := index(c.GetContext(), ParamsFromQuery(c))
	if err != nil {
		return err
	}
	if result.Page != nil {
		return basic.WriteSuccessResponse(c, result.Page)
	}
	return basic.WriteSuccessResponse(c, result.Items)
}

func (rb *RouteBuilder[T]) handleShow(c httpx.IHttpContext) error {
	id, err := basic.ParseID(c, "id")
	if err != nil {
		return err
	}
	record, err := rb.service.Show(c.GetContext(), id, ParamsFromQuery(c))
	if err != nil {
		return err
	}
	return basic.WriteSuccessResponse(c, record)
}

func (rb *RouteBuilder[T]) handleStore(c httpx.IHttpContext) error {
	payload, err := bindPayload(c)
	if err != nil {
		return err
	}
	record, err := rb.service.Store(c.GetContext(), payload)
	if err != nil {
		return err
	}
	return c.JSON(httpx.Created, httpx.CreatedMessage(record))
}

func (rb *RouteBuilder[T]) handleUpdate(c httpx.IHttpContext) error {
	id, err := basic.ParseID(c, "id")
	if err != nil {
		return err
	}
	payload, err := bindPayload(c)
	if err != nil {
		return err
	}
	record, err := rb.service.Update(c.GetContext(), id, payload)
	if err != nil {
		return err
	}
	return basic.WriteSuccessResponse(c, record)
}

func (rb *RouteBuilder[T]) handleDestroy(c httpx.IHttpContext) error {
	return rb.byID(c, rb.service.Destroy)
}

func (rb *RouteBuilder[T]) handleRestore(c httpx.IHttpContext) error {
	return rb.byID(c, rb.service.Restore)
}

func (rb *RouteBuilder[T]) handleForceDelete(c httpx.IHttpContext) error {
	return rb.byID(c, rb.service.ForceDelete)
}

func (rb *RouteBuilder[T]) byID(c httpx.IHttpContext, op func(context.Context, any) (*T, error)) error {
	id, err := basic.ParseID(c, "id")
	if err != nil {
		return err
	}
	record, err := op(c.GetContext(), id)
	if err != nil {
		return err
	}
	return basic.WriteSuccessResponse(c, record)
}

// ParamsFromQuery 单值参数转为 string，重复参数保留为 []string
func ParamsFromQuery(c httpx.IHttpContext) crud.Params {
	query := c.GetQueryParams()
	params := make(crud.Params, len(query))
	for key, values := range query {
		switch len(values) {
		case 0:
		case 1:
			params[key] = values[0]
		default:
			params[key] = append([]string(nil), values...)
		}
	}
	return params
}

func bindPayload(c httpx.IHttpContext) (map[string]any, error) {
	var payload map[string]any
	if err := c.BindJSON(&payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errors.NewError(errors.ErrCodeInvalidInput, "request body must be a JSON object")
	}
	return payload, nil
}
