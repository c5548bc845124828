package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fileharbor/internal/config"
)

const (
	// TypeLocal 表示本地文件系统存储。
	TypeLocal = "local"
	// TypeS3 表示 Amazon S3 存储后端。
	TypeS3 = "s3"
	// TypeWasabi 表示 Wasabi 存储（S3 兼容）。
	TypeWasabi = "wasabi"
	// TypeAzure 表示 Azure Blob 存储。
	TypeAzure = "azure"
	// TypeOSS 表示阿里云 OSS 存储。
	TypeOSS = "oss"
	// TypeCOS 表示腾讯云 COS 存储。
	TypeCOS = "cos"
)

// signedURLTTL is the fixed lifetime of presigned URLs for private files.
const signedURLTTL = time.Hour

// ErrUnsupportedOperation reports that the active backend cannot perform the
// requested operation (for example signing URLs on the local driver).
var ErrUnsupportedOperation = errors.New("storage: unsupported operation")

// UploadResult describes where an uploaded blob ended up.
type UploadResult struct {
	// Path is the backend-specific key the blob was stored under.
	Path string
	// URL is a directly reachable address when the backend exposes one.
	URL string
}

// Driver is the uniform contract implemented by every storage backend.
// Upload, Delete and URL operate on the coordinator-generated filename;
// Exists never fails, backend errors collapse to false.
type Driver interface {
	Name() string
	Upload(ctx context.Context, data []byte, filename, mimeType string) (UploadResult, error)
	Delete(ctx context.Context, filename string) error
	URL(ctx context.Context, filename string, isPublic bool) (string, error)
	Exists(ctx context.Context, filename string) bool
}

// LocalBaseDirProvider 由暴露可通过 HTTP 直接提供服务的本地目录的存储驱动实现。
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewDriver 根据配置实例化存储后端。配置不完整的后端在此处直接失败，
// 而不是在每次操作时静默跳过。
func NewDriver(cfg config.Config) (Driver, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	switch typeName {
	case "", TypeLocal:
		return NewLocalDriver(cfg.StorageLocalDir, cfg.StoragePublicBaseURL)
	case TypeS3:
		return NewS3Driver(cfg)
	case TypeWasabi:
		return NewWasabiDriver(cfg)
	case TypeAzure:
		return NewAzureDriver(cfg)
	case TypeOSS:
		return NewOSSDriver(cfg)
	case TypeCOS:
		return NewCOSDriver(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}
