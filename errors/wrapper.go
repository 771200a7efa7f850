package errors

import (
	"context"
	stdErrors "errors"
	"fmt"

	"gocrud/data/orm"
	"gocrud/logging"
)

// Normalize 将基础设施层的哨兵错误规范化为 AppError。
//
// 已经是 IError 的错误原样返回；未识别的错误保持原样，交由调用方决定是否 Wrap。
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(IError); ok {
		return err
	}
	if stdErrors.Is(err, orm.ErrNotFound) {
		return WrapError(err, ErrCodeNotFound, "record not found")
	}
	if stdErrors.Is(err, orm.ErrInvalidIdentifier) {
		return WrapError(err, ErrCodeValidation, "invalid field, relation or operator")
	}
	if stdErrors.Is(err, orm.ErrUnsupported) {
		return WrapError(err, ErrCodeUnsupported, "operation not supported by orm adapter")
	}
	return err
}

// WrapDatabaseError 包装数据库错误并记录警告日志。
// 已是 AppError 的错误（例如实体校验失败）不重复包装。
func WrapDatabaseError(ctx context.Context, err error, operation string, fields ...logging.Field) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(IError); ok {
		return err
	}
	if normalized, ok := Normalize(err).(IError); ok {
		return normalized
	}

	allFields := append([]logging.Field{
		logging.Error(err),
		logging.String("operation", operation),
	}, fields...)
	logging.GetLogger().Warn(ctx, "database operation failed", allFields...)

	return WrapError(err, ErrCodeDatabase, fmt.Sprintf("database operation failed: %s", operation))
}
