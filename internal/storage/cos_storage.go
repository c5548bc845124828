package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tencentyun/cos-go-sdk-v5"

	"fileharbor/internal/config"
)

type cosDriver struct {
	client    *cos.Client
	prefix    string
	secretID  string
	secretKey string
}

// NewCOSDriver 创建腾讯云 COS 驱动。
func NewCOSDriver(cfg config.Config) (Driver, error) {
	baseURL := strings.TrimSpace(cfg.StorageCOSBucketURL)
	if baseURL == "" {
		return nil, errors.New("storage: missing COS bucket URL")
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse COS bucket URL: %w", err)
	}

	secretID := strings.TrimSpace(cfg.StorageCOSSecretID)
	secretKey := strings.TrimSpace(cfg.StorageCOSSecretKey)
	if secretID == "" || secretKey == "" {
		return nil, errors.New("storage: missing COS credentials")
	}

	transport := &cos.AuthorizationTransport{
		SecretID:  secretID,
		SecretKey: secretKey,
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: parsedURL}, &http.Client{Transport: transport})

	return &cosDriver{
		client:    client,
		prefix:    trimPrefix(cfg.StorageCOSPrefix),
		secretID:  secretID,
		secretKey: secretKey,
	}, nil
}

func (d *cosDriver) Name() string {
	return TypeCOS
}

func (d *cosDriver) key(filename string) string {
	if d.prefix == "" {
		return strings.TrimLeft(filename, "/")
	}
	return joinPrefix(d.prefix, filename)
}

func (d *cosDriver) Upload(ctx context.Context, data []byte, filename, mimeType string) (UploadResult, error) {
	if len(data) == 0 {
		return UploadResult{}, errors.New("empty payload")
	}
	select {
	case <-ctx.Done():
		return UploadResult{}, ctx.Err()
	default:
	}

	key := d.key(filename)
	options := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{},
	}
	if trimmed := strings.TrimSpace(mimeType); trimmed != "" {
		options.ObjectPutHeaderOptions.ContentType = trimmed
	}

	resp, err := d.client.Object.Put(ctx, key, bytes.NewReader(data), options)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return UploadResult{}, fmt.Errorf("put object: %w", err)
	}

	return UploadResult{
		Path: key,
		URL:  d.client.Object.GetObjectURL(key).String(),
	}, nil
}

// Delete removes the object; a missing key counts as success.
func (d *cosDriver) Delete(ctx context.Context, filename string) error {
	resp, err := d.client.Object.Delete(ctx, d.key(filename))
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if cos.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (d *cosDriver) URL(ctx context.Context, filename string, isPublic bool) (string, error) {
	key := d.key(filename)
	if isPublic {
		return d.client.Object.GetObjectURL(key).String(), nil
	}

	signed, err := d.client.Object.GetPresignedURL(ctx, http.MethodGet, key, d.secretID, d.secretKey, signedURLTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign object url: %w", err)
	}
	return signed.String(), nil
}

func (d *cosDriver) Exists(ctx context.Context, filename string) bool {
	resp, err := d.client.Object.Head(ctx, d.key(filename), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return err == nil
}

var _ Driver = (*cosDriver)(nil)
