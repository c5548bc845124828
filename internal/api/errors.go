package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fileharbor/internal/auth"
	"fileharbor/internal/entity"
	"fileharbor/internal/service"
	"fileharbor/internal/storage"
)

// 错误码定义
const (
	// 通用错误码
	ErrCodeInvalidRequest     = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeConflict           = "ERR_CONFLICT"
	ErrCodeInternalError      = "ERR_INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"

	// 认证错误码
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeSessionExpired     = "ERR_SESSION_EXPIRED"
	ErrCodeUserDisabled       = "ERR_USER_DISABLED"
	ErrCodeUserNotFound       = "ERR_USER_NOT_FOUND"

	// 文件错误码
	ErrCodeFileTooLarge         = "ERR_FILE_TOO_LARGE"
	ErrCodeUnsupportedMediaType = "ERR_UNSUPPORTED_MEDIA_TYPE"
	ErrCodeStorageBackend       = "ERR_STORAGE_BACKEND"
	ErrCodeUnsupportedOperation = "ERR_UNSUPPORTED_OPERATION"

	ErrCodeMissingField = "ERR_MISSING_FIELD"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden 403 禁止访问
func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// RespondServiceError 把服务层错误翻译为 HTTP 响应。后端存储错误与未知
// 错误只返回通用消息，细节进日志。
func RespondServiceError(c *gin.Context, err error) {
	var backendErr *service.StorageBackendError

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, err.Error())
	case errors.Is(err, auth.ErrExpiredToken), errors.Is(err, auth.ErrRefreshTokenExpired):
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeSessionExpired, err.Error())
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidRefreshToken):
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, service.ErrConflict), errors.Is(err, entity.ErrRefreshRotationConflict):
		ErrorResponse(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, service.ErrFileTooLarge):
		ErrorResponse(c, http.StatusRequestEntityTooLarge, ErrCodeFileTooLarge, err.Error())
	case errors.Is(err, service.ErrUnsupportedMediaType):
		ErrorResponse(c, http.StatusUnsupportedMediaType, ErrCodeUnsupportedMediaType, err.Error())
	case errors.Is(err, storage.ErrUnsupportedOperation):
		ErrorResponse(c, http.StatusNotImplemented, ErrCodeUnsupportedOperation, "operation not supported by the configured storage backend")
	case errors.Is(err, service.ErrNotificationDelivery):
		ErrorResponse(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, err.Error())
	case errors.As(err, &backendErr):
		logrus.WithError(backendErr.Err).WithField("driver", backendErr.Driver).Error("storage backend error")
		ErrorResponse(c, http.StatusBadGateway, ErrCodeStorageBackend, "storage backend operation failed")
	default:
		logrus.WithError(err).Error("unhandled service error")
		InternalError(c, "internal server error")
	}
}
