package orm

import "errors"

var (
	// ErrNotFound 表示记录未找到。
	ErrNotFound = errors.New("orm: record not found")
	// ErrUnsupported 表示当前适配器不支持请求的能力。
	ErrUnsupported = errors.New("orm: capability unsupported")
	// ErrInvalidIdentifier 列名、关联名或操作符未通过安全校验。
	ErrInvalidIdentifier = errors.New("orm: invalid identifier")
)
