package api

import (
	"time"

	"fileharbor/internal/auth"
	"fileharbor/internal/config"
	"fileharbor/internal/model"
	"fileharbor/internal/notify"
	"fileharbor/internal/service"
	"fileharbor/internal/storage"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg         config.Config
	repo        model.Repository
	authManager *auth.Manager

	// 服务层
	authService    *service.AuthService
	userService    *service.UserService
	storageService *service.StorageService
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, repo model.Repository, driver storage.Driver, sender notify.Sender) (*HTTPHandler, error) {
	authManager, err := auth.NewManager(
		cfg.JWTSecret,
		cfg.JWTIssuer,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLHours)*time.Hour,
		time.Duration(cfg.JWTResetTTLMinutes)*time.Minute,
	)
	if err != nil {
		return nil, err
	}

	storageSvc, err := service.NewStorageService(cfg, repo, driver)
	if err != nil {
		return nil, err
	}

	return &HTTPHandler{
		cfg:            cfg,
		repo:           repo,
		authManager:    authManager,
		authService:    service.NewAuthService(repo, authManager, sender, cfg.FrontendURL),
		userService:    service.NewUserService(repo),
		storageService: storageSvc,
	}, nil
}
