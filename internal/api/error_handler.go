package api

import (
	"errors"
	"net/http"

	"github.com/MontyPithon/bancroff/internal/utils"
	"github.com/MontyPithon/bancroff/internal/workflow"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
				return
			}

			code, message := ClassifyError(err)
			Error(c, code, message, err.Error())
		}
	}
}

// ClassifyError 将领域错误映射到 HTTP 状态码
func ClassifyError(err error) (int, string) {
	var permErr *workflow.PermissionDeniedError
	var stateErr *workflow.InvalidStateError
	var confErr *workflow.ConfigurationError
	var persistErr *workflow.PersistenceError
	var validationErr *utils.ValidationError

	switch {
	// 仓储层直接透出 gorm.ErrRecordNotFound,与引擎的未找到错误同等对待
	case errors.Is(err, workflow.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "invalid input"
	case errors.As(err, &permErr):
		return http.StatusForbidden, "permission denied"
	case errors.As(err, &stateErr):
		return http.StatusConflict, "invalid state"
	case errors.As(err, &confErr):
		return http.StatusUnprocessableEntity, "workflow configuration error"
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError, "persistence error"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// AbortWithError 分类领域错误并写出统一错误响应
func AbortWithError(c *gin.Context, err error) {
	code, message := ClassifyError(err)
	Error(c, code, message, err.Error())
	c.Abort()
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}
