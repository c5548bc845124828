package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalDriver persists files to the local filesystem. Private URL resolution
// is unsupported because the filesystem cannot sign time-boxed links.
type LocalDriver struct {
	baseDir    string
	publicBase string
}

// NewLocalDriver creates a LocalDriver instance. The directory is created if
// it does not exist.
func NewLocalDriver(baseDir, publicBase string) (*LocalDriver, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		baseDir = "datas/uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	publicBase = strings.TrimSpace(publicBase)
	if publicBase == "" {
		publicBase = "/files"
	}

	return &LocalDriver{
		baseDir:    baseDir,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// LocalBaseDir returns the root directory used for storing files.
func (d *LocalDriver) LocalBaseDir() string {
	return d.baseDir
}

func (d *LocalDriver) Name() string {
	return TypeLocal
}

// Upload writes the provided bytes to disk and returns the filename as the
// stored path together with its public URL.
func (d *LocalDriver) Upload(ctx context.Context, data []byte, filename, _ string) (UploadResult, error) {
	if len(data) == 0 {
		return UploadResult{}, errors.New("empty payload")
	}
	select {
	case <-ctx.Done():
		return UploadResult{}, ctx.Err()
	default:
	}

	safe := filepath.Base(filename)
	if safe == "" || safe == "." || safe == string(filepath.Separator) {
		return UploadResult{}, fmt.Errorf("invalid filename %q", filename)
	}

	absPath := filepath.Join(d.baseDir, safe)
	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return UploadResult{}, fmt.Errorf("write file: %w", err)
	}

	return UploadResult{
		Path: safe,
		URL:  d.publicBase + "/" + safe,
	}, nil
}

// Delete removes the file from disk. An already-missing file counts as
// success.
func (d *LocalDriver) Delete(_ context.Context, filename string) error {
	absPath := filepath.Join(d.baseDir, filepath.Base(filename))
	if err := os.Remove(absPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// URL resolves a public address for the file. Private resolution would need
// a signing scheme the filesystem does not have.
func (d *LocalDriver) URL(_ context.Context, filename string, isPublic bool) (string, error) {
	if !isPublic {
		return "", ErrUnsupportedOperation
	}
	return d.publicBase + "/" + filepath.Base(filename), nil
}

// Exists reports whether the file is present on disk.
func (d *LocalDriver) Exists(_ context.Context, filename string) bool {
	_, err := os.Stat(filepath.Join(d.baseDir, filepath.Base(filename)))
	return err == nil
}

var _ Driver = (*LocalDriver)(nil)
var _ LocalBaseDirProvider = (*LocalDriver)(nil)
