package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"fileharbor/internal/config"
)

type ossDriver struct {
	bucket   *oss.Bucket
	prefix   string
	endpoint string
}

// NewOSSDriver 创建阿里云 OSS 驱动。
func NewOSSDriver(cfg config.Config) (Driver, error) {
	endpoint := strings.TrimSpace(cfg.StorageOSSEndpoint)
	if endpoint == "" {
		return nil, errors.New("storage: missing OSS endpoint")
	}
	bucketName := strings.TrimSpace(cfg.StorageOSSBucket)
	if bucketName == "" {
		return nil, errors.New("storage: missing OSS bucket")
	}
	accessKey := strings.TrimSpace(cfg.StorageOSSAccessKeyID)
	secretKey := strings.TrimSpace(cfg.StorageOSSAccessKeySecret)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("storage: missing OSS credentials")
	}

	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("storage: create OSS client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("storage: open OSS bucket: %w", err)
	}

	return &ossDriver{
		bucket:   bucket,
		prefix:   trimPrefix(cfg.StorageOSSPrefix),
		endpoint: strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://"),
	}, nil
}

func (d *ossDriver) Name() string {
	return TypeOSS
}

func (d *ossDriver) key(filename string) string {
	if d.prefix == "" {
		return strings.TrimLeft(filename, "/")
	}
	return joinPrefix(d.prefix, filename)
}

func (d *ossDriver) Upload(ctx context.Context, data []byte, filename, mimeType string) (UploadResult, error) {
	if len(data) == 0 {
		return UploadResult{}, errors.New("empty payload")
	}
	select {
	case <-ctx.Done():
		return UploadResult{}, ctx.Err()
	default:
	}

	key := d.key(filename)
	options := []oss.Option{oss.WithContext(ctx)}
	if trimmed := strings.TrimSpace(mimeType); trimmed != "" {
		options = append(options, oss.ContentType(trimmed))
	}

	if err := d.bucket.PutObject(key, bytes.NewReader(data), options...); err != nil {
		return UploadResult{}, fmt.Errorf("put object: %w", err)
	}

	return UploadResult{
		Path: key,
		URL:  d.objectURL(key),
	}, nil
}

// Delete removes the object. OSS treats deleting a missing key as success.
func (d *ossDriver) Delete(ctx context.Context, filename string) error {
	if err := d.bucket.DeleteObject(d.key(filename), oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (d *ossDriver) URL(_ context.Context, filename string, isPublic bool) (string, error) {
	key := d.key(filename)
	if isPublic {
		return d.objectURL(key), nil
	}

	signed, err := d.bucket.SignURL(key, oss.HTTPGet, int64(signedURLTTL.Seconds()))
	if err != nil {
		return "", fmt.Errorf("sign object url: %w", err)
	}
	return signed, nil
}

func (d *ossDriver) Exists(_ context.Context, filename string) bool {
	exists, err := d.bucket.IsObjectExist(d.key(filename))
	return err == nil && exists
}

func (d *ossDriver) objectURL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", d.bucket.BucketName, d.endpoint, key)
}

var _ Driver = (*ossDriver)(nil)
