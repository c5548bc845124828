package model

import (
	"context"
	"time"

	"fileharbor/internal/entity"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 用户管理
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error
	GetUserByIdentifier(ctx context.Context, identifier string) (*entity.DbUser, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	FindUserByEmailOrUsername(ctx context.Context, email, username string) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	CountUsers(ctx context.Context) (int64, error)

	// 刷新令牌轮换。RotateRefreshToken 使用带条件的更新，previous 不匹配时
	// 返回 entity.ErrRefreshRotationConflict，避免并发轮换互相覆盖。
	RotateRefreshToken(ctx context.Context, userID uint, previous *string, token string, expiresAt time.Time) error
	ClearRefreshToken(ctx context.Context, userID uint) error

	// 文件元数据
	CreateFile(ctx context.Context, file *entity.DbFile) error
	GetFileByID(ctx context.Context, id uint) (*entity.DbFile, error)
	ListFiles(ctx context.Context, params *entity.FileQuery) ([]entity.DbFile, *entity.Meta, error)
	SoftDeleteFile(ctx context.Context, id uint) error
	HardDeleteFile(ctx context.Context, id uint) error
	ListFilesDeletedBefore(ctx context.Context, cutoff time.Time) ([]entity.DbFile, error)
}
