package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"fileharbor/internal/config"
)

// NewWasabiDriver 创建 Wasabi 驱动（S3 兼容，自定义 endpoint）。
func NewWasabiDriver(cfg config.Config) (Driver, error) {
	bucket := strings.TrimSpace(cfg.StorageWasabiBucket)
	if bucket == "" {
		return nil, errors.New("storage: missing Wasabi bucket")
	}
	accessKey := strings.TrimSpace(cfg.StorageWasabiAccessKeyID)
	secretKey := strings.TrimSpace(cfg.StorageWasabiSecretAccessKey)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("storage: missing Wasabi credentials")
	}

	endpoint := strings.TrimSpace(cfg.StorageWasabiEndpoint)
	if endpoint == "" {
		endpoint = "https://s3.wasabisys.com"
	}
	endpoint = normalizeEndpoint(endpoint)

	region := strings.TrimSpace(cfg.StorageWasabiRegion)
	if region == "" {
		region = "us-east-1"
	}

	client, err := newS3Client(s3ClientOptions{
		Region:          region,
		Endpoint:        endpoint,
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		ForcePathStyle:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create Wasabi client: %w", err)
	}

	return &remoteS3Driver{
		name:      TypeWasabi,
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		prefix:    trimPrefix(cfg.StorageWasabiPrefix),
		publicURL: fmt.Sprintf("%s/%s", strings.TrimRight(endpoint, "/"), bucket),
	}, nil
}
