// Package http 提供简化的 HTTP 接口，遵循接口隔离原则
package http

import (
	"context"
	"net/http"
	"net/url"
)

// IRequestReader 请求读取接口 - 只负责读取请求数据
type IRequestReader interface {
	GetMethod() string
	GetPath() string
	GetHeader(key string) string
	GetQuery(key string) string
	GetParam(key string) string
	GetQueryParams() url.Values

	// 请求体
	GetBody() ([]byte, error)
	GetRequest() *http.Request

	ClientIP() string
}

// IRequestBinder 请求绑定接口
type IRequestBinder interface {
	BindJSON(obj any) error
}

// IResponseWriter 响应写入接口 - 只负责写入响应
type IResponseWriter interface {
	SetStatus(code int)
	SetHeader(key, value string)

	JSON(code int, obj any) error
	String(code int, text string) error
	Data(code int, contentType string, data []byte) error

	// Written 响应是否已写出
	Written() bool
}

// IContextStorage 请求内键值存储
type IContextStorage interface {
	Set(key string, value any)
	Get(key string) (any, bool)
}

// IFlowControl 流程控制接口
type IFlowControl interface {
	Abort()
	IsAborted() bool
}

// IHttpContext 组合接口 - 通过组合而非继承
type IHttpContext interface {
	IRequestReader
	IRequestBinder
	IResponseWriter
	IContextStorage
	IFlowControl

	// GetContext 请求级 context，携带 request id 等值
	GetContext() context.Context
	SetContext(ctx context.Context)
}

// HttpHandler 处理器函数类型
type HttpHandler func(ctx IHttpContext) error
