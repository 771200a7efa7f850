package basic

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"gocrud/errors"
	httpx "gocrud/http"
)

// ParseID 解析正整数路径参数
func ParseID(ctx httpx.IHttpContext, paramName string) (int64, error) {
	idStr := ctx.GetParam(paramName)
	if idStr == "" {
		return 0, errors.NewError(errors.ErrCodeInvalidInput, fmt.Sprintf("parameter %s cannot be empty", paramName))
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, errors.WrapError(err, errors.ErrCodeInvalidInput, fmt.Sprintf("parameter %s must be a valid integer", paramName))
	}
	if id <= 0 {
		return 0, errors.NewError(errors.ErrCodeInvalidInput, fmt.Sprintf("parameter %s must be greater than 0", paramName))
	}
	return id, nil
}

// WriteErrorResponse 按错误码写出错误响应；响应已写出时不再写入。
// 非 AppError 一律按 500 处理且不暴露原始错误信息。
func WriteErrorResponse(ctx httpx.IHttpContext, err error) error {
	if ctx.Written() {
		return nil
	}
	err = errors.Normalize(err)

	var appErr *errors.AppError
	if !stdErrors.As(err, &appErr) {
		return ctx.JSON(http.StatusInternalServerError,
			httpx.ErrorMessage(http.StatusInternalServerError, "internal server error"))
	}
	status := errors.HTTPStatus(appErr.Code())
	message := appErr.Message()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	details := map[string]any{"error_code": string(appErr.Code())}
	for k, v := range appErr.Details() {
		details[k] = v
	}
	return ctx.JSON(status, httpx.ErrorMessage(status, message, details))
}

func WriteSuccessResponse(ctx httpx.IHttpContext, data any) error {
	return ctx.JSON(http.StatusOK, httpx.SuccessMessage(data))
}
