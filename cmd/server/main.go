package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"fileharbor/internal/api"
	"fileharbor/internal/config"
	"fileharbor/internal/model"
	"fileharbor/internal/notify"
	"fileharbor/internal/rbac"
	"fileharbor/internal/storage"
)

func main() {
	// .env 可选，缺失时直接用进程环境
	_ = godotenv.Load()

	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	// 初始化logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}

	if err := model.SeedOwnerAccount(context.Background(), repo, cfg); err != nil {
		logrus.WithError(err).Warn("failed to seed owner account")
	}

	driver, err := storage.NewDriver(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage driver")
		return
	}
	logrus.WithField("driver", driver.Name()).Info("storage driver ready")

	sender, err := notify.NewSender(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise notification sender")
		return
	}
	if closer, ok := sender.(*notify.AMQPSender); ok {
		defer closer.Close()
	}

	httpHandler, err := api.NewHTTPHandler(cfg, repo, driver, sender)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise http handler")
		return
	}

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 添加中间件
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/signup", httpHandler.Signup)
	authGroup.POST("/login", httpHandler.Login)
	authGroup.POST("/refresh", httpHandler.Refresh)
	authGroup.POST("/forgot-password", httpHandler.ForgotPassword)
	authGroup.POST("/reset-password", httpHandler.ResetPassword)
	authGroup.POST("/logout", httpHandler.AuthMiddleware(), httpHandler.Logout)
	authGroup.GET("/me", httpHandler.AuthMiddleware(), httpHandler.Me)

	protected := apiGroup.Group("")
	protected.Use(httpHandler.AuthMiddleware())
	protected.PATCH("/profile", httpHandler.UpdateProfile)

	files := protected.Group("/files")
	files.POST("", httpHandler.UploadFile)
	files.POST("/batch", httpHandler.UploadFiles)
	files.GET("", httpHandler.ListFiles)
	files.GET("/:id", httpHandler.GetFile)
	files.GET("/:id/url", httpHandler.GetFileURL)
	files.DELETE("/:id", httpHandler.DeleteFile)
	files.POST("/cleanup", httpHandler.RequireMinRole(rbac.RoleAdministrator), httpHandler.CleanupFiles)

	userAdmin := protected.Group("/users")
	userAdmin.Use(httpHandler.RequireMinRole(rbac.RoleAdministrator))
	userAdmin.GET("", httpHandler.ListUsers)
	userAdmin.PATCH("/:id/role", httpHandler.UpdateUserRole)
	userAdmin.PATCH("/:id/active", httpHandler.SetUserActive)

	// 本地驱动的公开文件直接由 HTTP 服务
	if localProvider, ok := driver.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/files"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logrus.WithField("host", serverHost).Info("服务器启动")
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  300 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  600 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logrus.WithError(err).Error("服务器启动失败")
	}
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware 日志记录中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}
