// Package validation 基于 go-playground/validator 的实体校验，失败时返回 VALIDATION_ERROR。
package validation

import (
	stdErrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"gocrud/errors"
)

// IValidator 定义通用验证器接口
type IValidator interface {
	Validate(value any) error
}

// NoopValidator 空操作验证器
type NoopValidator struct{}

func (NoopValidator) Validate(any) error { return nil }

// StructValidator 按 `validate` 标签校验结构体
type StructValidator struct {
	validate *validator.Validate
}

// NewStructValidator 创建结构体验证器，错误详情中的字段名取 json 标签
func NewStructValidator() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &StructValidator{validate: v}
}

// Engine 暴露底层 *validator.Validate，用于注册自定义规则
func (s *StructValidator) Engine() *validator.Validate { return s.validate }

// Validate 实现 IValidator 接口；非结构体值直接通过
func (s *StructValidator) Validate(value any) error {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := s.validate.Struct(value)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stdErrors.As(err, &fieldErrs) {
		return errors.WrapError(err, errors.ErrCodeValidation, "validation failed")
	}
	details := make(map[string]any, len(fieldErrs))
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = rule(fe)
		fields = append(fields, fe.Field())
	}
	return errors.NewValidationError("validation failed: " + strings.Join(fields, ", ")).WithDetails(details)
}

func rule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

var (
	defaultOnce      sync.Once
	defaultValidator *StructValidator
)

// Default 返回进程级共享的结构体验证器
func Default() *StructValidator {
	defaultOnce.Do(func() {
		defaultValidator = NewStructValidator()
	})
	return defaultValidator
}

// Struct 使用默认验证器校验结构体
func Struct(value any) error {
	return Default().Validate(value)
}
