package sql

import (
	"context"
	"fmt"
	"time"

	"fileharbor/internal/entity"
)

// CreateFile persists a new file metadata row.
func (r *GormRepository) CreateFile(ctx context.Context, file *entity.DbFile) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if file == nil {
		return fmt.Errorf("file is nil")
	}
	return r.db.WithContext(ctx).Create(file).Error
}

// GetFileByID loads a file by ID. Soft-deleted rows are excluded.
func (r *GormRepository) GetFileByID(ctx context.Context, id uint) (*entity.DbFile, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid file id")
	}
	var file entity.DbFile
	if err := r.db.WithContext(ctx).First(&file, id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// ListFiles returns paginated files excluding soft-deleted rows, newest first.
func (r *GormRepository) ListFiles(ctx context.Context, params *entity.FileQuery) ([]entity.DbFile, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbFile{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var page, pageSize int
	if params != nil {
		page, pageSize = normalisePage(&params.BaseParams)
	} else {
		page, pageSize = normalisePage(nil)
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var files []entity.DbFile
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&files).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return files, meta, nil
}

// SoftDeleteFile marks a file deleted without removing the row.
func (r *GormRepository) SoftDeleteFile(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid file id")
	}
	return r.db.WithContext(ctx).Delete(&entity.DbFile{}, id).Error
}

// HardDeleteFile removes a file row permanently, including soft-deleted ones.
func (r *GormRepository) HardDeleteFile(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid file id")
	}
	return r.db.WithContext(ctx).Unscoped().Delete(&entity.DbFile{}, id).Error
}

// ListFilesDeletedBefore returns soft-deleted files whose deletion timestamp
// is older than the cutoff, for the orphan retention sweep.
func (r *GormRepository) ListFilesDeletedBefore(ctx context.Context, cutoff time.Time) ([]entity.DbFile, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}

	var files []entity.DbFile
	if err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}
