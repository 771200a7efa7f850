package basic

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"gocrud/errors"
	httpx "gocrud/http"
	"gocrud/logging"
)

// RequestID 沿用请求头中的 X-Request-ID，缺失时生成 UUID，并写回响应头与 context
func RequestID() httpx.Middleware {
	return func(ctx httpx.IHttpContext, next func() error) error {
		id := ctx.GetHeader(httpx.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.SetHeader(httpx.HeaderRequestID, id)
		ctx.SetContext(httpx.WithRequestID(ctx.GetContext(), id))
		return next()
	}
}

// Recovery 把处理器 panic 转为 500 错误
func Recovery(logger logging.Logger) httpx.Middleware {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return func(ctx httpx.IHttpContext, next func() error) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx.GetContext(), "panic in http handler",
					logging.Any("panic", r),
					logging.String("path", ctx.GetPath()),
				)
				err = errors.NewError(errors.ErrCodeInternal, fmt.Sprintf("panic: %v", r))
			}
		}()
		return next()
	}
}

// AccessLog 记录请求方法、路径、耗时与请求 ID
func AccessLog(logger logging.Logger) httpx.Middleware {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return func(ctx httpx.IHttpContext, next func() error) error {
		start := time.Now()
		err := next()
		fields := []logging.Field{
			logging.String("method", ctx.GetMethod()),
			logging.String("path", ctx.GetPath()),
			logging.String("request_id", httpx.GetRequestID(ctx.GetContext())),
			logging.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			status := errors.HTTPStatus(errors.GetErrorCode(errors.Normalize(err)))
			fields = append(fields, logging.Int("status", status), logging.Error(err))
			if status >= http.StatusInternalServerError {
				logger.Error(ctx.GetContext(), "request failed", fields...)
			} else {
				logger.Info(ctx.GetContext(), "request rejected", fields...)
			}
			return err
		}
		logger.Debug(ctx.GetContext(), "request handled", fields...)
		return nil
	}
}
