package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fileharbor/internal/config"
	"fileharbor/internal/entity"
	"fileharbor/internal/model"
	"fileharbor/internal/storage"
)

// UploadFailure records a single rejected or failed entry of a batch upload.
type UploadFailure struct {
	OriginalName string `json:"original_name"`
	Reason       string `json:"reason"`
}

// BatchUploadResult carries the per-file outcome of a best-effort batch.
type BatchUploadResult struct {
	Uploaded []entity.DbFile `json:"uploaded"`
	Failed   []UploadFailure `json:"failed"`
}

// StorageService 在存储驱动之上统一校验、元数据和清理逻辑。
// 驱动只搬运字节，所有业务规则都在这一层。
type StorageService struct {
	repo          model.Repository
	driver        storage.Driver
	maxBytes      int64
	allowedMime   map[string]struct{}
	retentionDays int
}

// NewStorageService wires the coordinator from configuration.
func NewStorageService(cfg config.Config, repo model.Repository, driver storage.Driver) (*StorageService, error) {
	if repo == nil {
		return nil, errors.New("repository is nil")
	}
	if driver == nil {
		return nil, errors.New("storage driver is nil")
	}

	allowed := make(map[string]struct{})
	for _, mime := range cfg.AllowedMimeList() {
		allowed[strings.ToLower(mime)] = struct{}{}
	}

	maxMB := cfg.MaxUploadSizeMB
	if maxMB <= 0 {
		maxMB = 8
	}
	retention := cfg.OrphanedRetentionDays
	if retention <= 0 {
		retention = 30
	}

	return &StorageService{
		repo:          repo,
		driver:        driver,
		maxBytes:      int64(maxMB) * 1024 * 1024,
		allowedMime:   allowed,
		retentionDays: retention,
	}, nil
}

// DriverName reports the active backend for diagnostics.
func (s *StorageService) DriverName() string {
	return s.driver.Name()
}

// validate 在任何驱动调用之前执行，先检查大小再检查类型。
func (s *StorageService) validate(file *entity.IncomingFile) error {
	if file == nil {
		return errors.New("file is nil")
	}
	if file.Size > s.maxBytes {
		return fmt.Errorf("%w: limit is %d MB", ErrFileTooLarge, s.maxBytes/(1024*1024))
	}
	if len(s.allowedMime) > 0 {
		if _, ok := s.allowedMime[strings.ToLower(strings.TrimSpace(file.MimeType))]; !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, file.MimeType)
		}
	}
	return nil
}

// Upload validates the file, stores the bytes through the driver and then
// persists metadata. When the metadata insert fails the already stored blob
// stays behind as an orphan; it is logged and left for the cleanup sweep.
func (s *StorageService) Upload(ctx context.Context, file *entity.IncomingFile, isPublic bool) (*entity.DbFile, error) {
	if err := s.validate(file); err != nil {
		return nil, err
	}

	filename := storage.GenerateFilename(file.OriginalName)
	result, err := s.driver.Upload(ctx, file.Data, filename, file.MimeType)
	if err != nil {
		return nil, &StorageBackendError{Driver: s.driver.Name(), Err: err}
	}

	record := &entity.DbFile{
		Filename:     filename,
		OriginalName: file.OriginalName,
		MimeType:     file.MimeType,
		Size:         file.Size,
		Driver:       s.driver.Name(),
		Path:         result.Path,
		IsPublic:     isPublic,
	}
	if result.URL != "" {
		record.URL = &result.URL
	}

	if err := s.repo.CreateFile(ctx, record); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"driver":   s.driver.Name(),
			"filename": filename,
		}).Error("file stored but metadata insert failed, blob orphaned")
		return nil, fmt.Errorf("save file metadata: %w", err)
	}
	return record, nil
}

// UploadMany stores each file independently. A failing entry is recorded
// and skipped, the rest of the batch continues.
func (s *StorageService) UploadMany(ctx context.Context, files []*entity.IncomingFile, isPublic bool) (*BatchUploadResult, error) {
	result := &BatchUploadResult{
		Uploaded: make([]entity.DbFile, 0, len(files)),
		Failed:   make([]UploadFailure, 0),
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		record, err := s.Upload(ctx, file, isPublic)
		if err != nil {
			name := ""
			if file != nil {
				name = file.OriginalName
			}
			logrus.WithError(err).WithField("original_name", name).Warn("batch upload entry failed")
			result.Failed = append(result.Failed, UploadFailure{OriginalName: name, Reason: err.Error()})
			continue
		}
		result.Uploaded = append(result.Uploaded, *record)
	}
	return result, nil
}

// GetFile loads file metadata by id, excluding soft-deleted entries.
func (s *StorageService) GetFile(ctx context.Context, id uint) (*entity.DbFile, error) {
	file, err := s.repo.GetFileByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: file %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("lookup file: %w", err)
	}
	return file, nil
}

// FileURL resolves a client-usable URL for the stored object. Private files
// on backends that support it get a time-limited signed URL.
func (s *StorageService) FileURL(ctx context.Context, id uint) (string, error) {
	file, err := s.GetFile(ctx, id)
	if err != nil {
		return "", err
	}

	url, err := s.driver.URL(ctx, file.Filename, file.IsPublic)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedOperation) {
			return "", err
		}
		return "", &StorageBackendError{Driver: s.driver.Name(), Err: err}
	}
	return url, nil
}

// ListFiles returns paginated file metadata, newest first.
func (s *StorageService) ListFiles(ctx context.Context, params *entity.FileQuery) (*entity.FileListResponse, error) {
	files, meta, err := s.repo.ListFiles(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return &entity.FileListResponse{Files: files, Meta: meta}, nil
}

// SoftDelete removes the blob from the backend first and only then marks
// the metadata deleted, so a driver failure leaves the record visible for
// a retry instead of creating an unreferenced blob.
func (s *StorageService) SoftDelete(ctx context.Context, id uint) (*entity.MessageResponse, error) {
	file, err := s.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.driver.Delete(ctx, file.Filename); err != nil {
		return nil, &StorageBackendError{Driver: s.driver.Name(), Err: err}
	}
	if err := s.repo.SoftDeleteFile(ctx, file.ID); err != nil {
		return nil, fmt.Errorf("mark file deleted: %w", err)
	}
	return &entity.MessageResponse{Message: "File deleted successfully"}, nil
}

// SweepOrphaned hard-deletes records soft-deleted longer ago than the
// retention window, removing any backend blob that still exists. Each entry
// is independent, one failure never stops the sweep.
func (s *StorageService) SweepOrphaned(ctx context.Context) (*entity.CleanupResponse, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)

	files, err := s.repo.ListFilesDeletedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list orphaned files: %w", err)
	}

	deleted := 0
	for i := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file := &files[i]

		if s.driver.Exists(ctx, file.Filename) {
			if err := s.driver.Delete(ctx, file.Filename); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"file_id":  file.ID,
					"filename": file.Filename,
				}).Warn("cleanup could not remove blob, skipping")
				continue
			}
		}
		if err := s.repo.HardDeleteFile(ctx, file.ID); err != nil {
			logrus.WithError(err).WithField("file_id", file.ID).Warn("cleanup could not purge metadata, skipping")
			continue
		}
		deleted++
	}

	return &entity.CleanupResponse{
		DeletedCount: deleted,
		Message:      fmt.Sprintf("Cleaned up %d orphaned files", deleted),
	}, nil
}
