package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"fileharbor/internal/auth"
	"fileharbor/internal/entity"
	"fileharbor/internal/service"
	"fileharbor/internal/storage"
)

func TestErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		status         int
		code           string
		message        string
		expectedStatus int
	}{
		{
			name:           "BadRequest",
			status:         http.StatusBadRequest,
			code:           ErrCodeInvalidRequest,
			message:        "invalid request",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "NotFound",
			status:         http.StatusNotFound,
			code:           ErrCodeNotFound,
			message:        "file not found",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "InternalError",
			status:         http.StatusInternalServerError,
			code:           ErrCodeInternalError,
			message:        "internal server error",
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			ErrorResponse(c, tt.status, tt.code, tt.message)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response APIError
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}

			if response.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, response.Code)
			}
			if response.Message != tt.message {
				t.Errorf("expected message %s, got %s", tt.message, response.Message)
			}
		})
	}
}

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "凭证错误",
			err:            fmt.Errorf("%w: username or email is incorrect", auth.ErrInvalidCredentials),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   ErrCodeInvalidCredentials,
		},
		{
			name:           "刷新令牌过期",
			err:            auth.ErrRefreshTokenExpired,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   ErrCodeSessionExpired,
		},
		{
			name:           "刷新令牌无效",
			err:            auth.ErrInvalidRefreshToken,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   ErrCodeUnauthorized,
		},
		{
			name:           "越权",
			err:            fmt.Errorf("%w: cannot assign a role at or above your own", service.ErrForbidden),
			expectedStatus: http.StatusForbidden,
			expectedCode:   ErrCodeForbidden,
		},
		{
			name:           "资源不存在",
			err:            fmt.Errorf("%w: file 42", service.ErrNotFound),
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrCodeNotFound,
		},
		{
			name:           "重复资源",
			err:            fmt.Errorf("%w: email or username already taken", service.ErrConflict),
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrCodeConflict,
		},
		{
			name:           "并发轮换冲突",
			err:            entity.ErrRefreshRotationConflict,
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrCodeConflict,
		},
		{
			name:           "文件过大",
			err:            fmt.Errorf("%w: limit is 8 MB", service.ErrFileTooLarge),
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedCode:   ErrCodeFileTooLarge,
		},
		{
			name:           "类型不允许",
			err:            fmt.Errorf("%w: application/zip", service.ErrUnsupportedMediaType),
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedCode:   ErrCodeUnsupportedMediaType,
		},
		{
			name:           "驱动不支持的操作",
			err:            storage.ErrUnsupportedOperation,
			expectedStatus: http.StatusNotImplemented,
			expectedCode:   ErrCodeUnsupportedOperation,
		},
		{
			name:           "通知投递失败",
			err:            fmt.Errorf("%w, please try again later", service.ErrNotificationDelivery),
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   ErrCodeServiceUnavailable,
		},
		{
			name:           "存储后端错误",
			err:            &service.StorageBackendError{Driver: "s3", Err: errors.New("bucket gone")},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   ErrCodeStorageBackend,
		},
		{
			name:           "未知错误",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			RespondServiceError(c, tt.err)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response APIError
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if response.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
			}
		})
	}
}

func TestBackendErrorHidesDriverName(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondServiceError(c, &service.StorageBackendError{Driver: "wasabi", Err: errors.New("access denied")})

	var response APIError
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Message != "storage backend operation failed" {
		t.Errorf("unexpected message: %q", response.Message)
	}
}
