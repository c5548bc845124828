package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"fileharbor/internal/config"
)

type s3ClientOptions struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	ForcePathStyle  bool
}

// remoteS3Driver serves both Amazon S3 and S3-compatible backends such as
// Wasabi; they differ only in endpoint, credentials, and public URL shape.
type remoteS3Driver struct {
	name      string
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	prefix    string
	publicURL string
}

func (d *remoteS3Driver) Name() string {
	return d.name
}

func (d *remoteS3Driver) key(filename string) string {
	if d.prefix == "" {
		return strings.TrimLeft(filename, "/")
	}
	return joinPrefix(d.prefix, filename)
}

func (d *remoteS3Driver) Upload(ctx context.Context, data []byte, filename, mimeType string) (UploadResult, error) {
	if len(data) == 0 {
		return UploadResult{}, errors.New("empty payload")
	}
	select {
	case <-ctx.Done():
		return UploadResult{}, ctx.Err()
	default:
	}

	key := d.key(filename)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if strings.TrimSpace(mimeType) != "" {
		input.ContentType = aws.String(mimeType)
	}

	if _, err := d.client.PutObject(ctx, input); err != nil {
		return UploadResult{}, fmt.Errorf("put object: %w", err)
	}

	return UploadResult{
		Path: key,
		URL:  d.objectURL(key),
	}, nil
}

// Delete removes the object. S3 reports success for missing keys, which
// matches the idempotent intent of the contract.
func (d *remoteS3Driver) Delete(ctx context.Context, filename string) error {
	key := d.key(filename)
	if _, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isS3NotFound(err) {
			return nil
		}
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (d *remoteS3Driver) URL(ctx context.Context, filename string, isPublic bool) (string, error) {
	key := d.key(filename)
	if isPublic {
		return d.objectURL(key), nil
	}

	presigned, err := d.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(signedURLTTL))
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return presigned.URL, nil
}

func (d *remoteS3Driver) Exists(ctx context.Context, filename string) bool {
	_, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(filename)),
	})
	return err == nil
}

func (d *remoteS3Driver) objectURL(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(d.publicURL, "/"), strings.TrimLeft(key, "/"))
}

var _ Driver = (*remoteS3Driver)(nil)

func isS3NotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := strings.ToLower(apiErr.ErrorCode())
		if code == "notfound" || code == "nosuchkey" || code == "404" {
			return true
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "status code: 404") {
		return true
	}
	return false
}

// NewS3Driver 根据配置创建 Amazon S3 驱动。
func NewS3Driver(cfg config.Config) (Driver, error) {
	bucket := strings.TrimSpace(cfg.StorageS3Bucket)
	if bucket == "" {
		return nil, errors.New("storage: missing S3 bucket")
	}
	region := strings.TrimSpace(cfg.StorageS3Region)
	if region == "" {
		return nil, errors.New("storage: missing S3 region")
	}
	accessKey := strings.TrimSpace(cfg.StorageS3AccessKeyID)
	secretKey := strings.TrimSpace(cfg.StorageS3SecretAccessKey)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("storage: missing S3 credentials")
	}

	client, err := newS3Client(s3ClientOptions{
		Region:          region,
		Endpoint:        strings.TrimSpace(cfg.StorageS3Endpoint),
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		SessionToken:    strings.TrimSpace(cfg.StorageS3SessionToken),
		ForcePathStyle:  cfg.StorageS3ForcePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create S3 client: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	if endpoint := strings.TrimSpace(cfg.StorageS3Endpoint); endpoint != "" {
		publicURL = fmt.Sprintf("%s/%s", strings.TrimRight(normalizeEndpoint(endpoint), "/"), bucket)
	}

	return &remoteS3Driver{
		name:      TypeS3,
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		prefix:    trimPrefix(cfg.StorageS3Prefix),
		publicURL: publicURL,
	}, nil
}

func newS3Client(opts s3ClientOptions) (*s3.Client, error) {
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		return nil, errors.New("storage: missing S3 region")
	}
	accessKey := strings.TrimSpace(opts.AccessKeyID)
	secretKey := strings.TrimSpace(opts.SecretAccessKey)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("storage: missing S3 credentials")
	}

	credentialsProvider := aws.NewCredentialsCache(
		credentials.NewStaticCredentialsProvider(accessKey, secretKey, strings.TrimSpace(opts.SessionToken)),
	)

	awsCfg := aws.Config{
		Region:      region,
		Credentials: credentialsProvider,
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint != "" {
		endpoint = normalizeEndpoint(endpoint)
		awsCfg.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(func(service, _ string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           endpoint,
					SigningRegion: region,
				}, nil
			}
			return aws.Endpoint{}, fmt.Errorf("storage: no endpoint for service %s", service)
		})
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.ForcePathStyle
	})

	return client, nil
}

func normalizeEndpoint(endpoint string) string {
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return "https://" + endpoint
	}
	return endpoint
}
