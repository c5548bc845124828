package entity

import (
	"time"

	"gorm.io/gorm"
)

// DbFile is a stored file's metadata row. A set DeletedAt marks a soft
// delete: the blob may still exist in the backend until the retention sweep
// removes both.
type DbFile struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Filename     string         `gorm:"column:filename;type:varchar(255);uniqueIndex;not null" json:"filename"`
	OriginalName string         `gorm:"column:original_name;type:varchar(255);not null" json:"original_name"`
	MimeType     string         `gorm:"column:mime_type;type:varchar(127);not null" json:"mime_type"`
	Size         int64          `gorm:"column:size;not null" json:"size"`
	Driver       string         `gorm:"column:driver;type:varchar(50);not null" json:"driver"`
	Path         string         `gorm:"column:path;type:varchar(512);not null" json:"path"`
	URL          *string        `gorm:"column:url;type:varchar(1024)" json:"url,omitempty"`
	IsPublic     bool           `gorm:"column:is_public;not null;default:false" json:"is_public"`
}

// TableName overrides default pluralised name.
func (DbFile) TableName() string {
	return "files"
}

// IncomingFile is the already-validated upload payload handed to the service
// layer by the transport.
type IncomingFile struct {
	Data         []byte
	OriginalName string
	MimeType     string
	Size         int64
}

// FileQuery supports listing files with pagination.
type FileQuery struct {
	BaseParams
}

type FileListResponse struct {
	Files []DbFile `json:"files"`
	Meta  *Meta    `json:"meta"`
}

type CleanupResponse struct {
	DeletedCount int    `json:"deleted_count"`
	Message      string `json:"message"`
}
