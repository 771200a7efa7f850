package http

import "context"

type requestIDKey struct{}

// HeaderRequestID 请求 ID 头
const HeaderRequestID = "X-Request-ID"

// WithRequestID 在 context 中设置请求 ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID 从 context 中获取请求 ID，不存在时返回空字符串
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
