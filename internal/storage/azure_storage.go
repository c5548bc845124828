package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"fileharbor/internal/config"
)

type azureDriver struct {
	client    *azblob.Client
	container string
}

// NewAzureDriver 创建 Azure Blob 驱动。
func NewAzureDriver(cfg config.Config) (Driver, error) {
	account := strings.TrimSpace(cfg.StorageAzureAccount)
	key := strings.TrimSpace(cfg.StorageAzureKey)
	container := strings.TrimSpace(cfg.StorageAzureContainer)
	if account == "" || key == "" {
		return nil, errors.New("storage: missing Azure credentials")
	}
	if container == "" {
		return nil, errors.New("storage: missing Azure container")
	}

	credential, err := azblob.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, fmt.Errorf("storage: create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", account)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: create Azure client: %w", err)
	}

	return &azureDriver{
		client:    client,
		container: container,
	}, nil
}

func (d *azureDriver) Name() string {
	return TypeAzure
}

func (d *azureDriver) blobClient(filename string) *blob.Client {
	return d.client.ServiceClient().NewContainerClient(d.container).NewBlobClient(filename)
}

func (d *azureDriver) Upload(ctx context.Context, data []byte, filename, mimeType string) (UploadResult, error) {
	if len(data) == 0 {
		return UploadResult{}, errors.New("empty payload")
	}
	select {
	case <-ctx.Done():
		return UploadResult{}, ctx.Err()
	default:
	}

	opts := &azblob.UploadBufferOptions{}
	if trimmed := strings.TrimSpace(mimeType); trimmed != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &trimmed}
	}

	if _, err := d.client.UploadBuffer(ctx, d.container, filename, data, opts); err != nil {
		return UploadResult{}, fmt.Errorf("upload blob: %w", err)
	}

	return UploadResult{
		Path: filename,
		URL:  d.blobClient(filename).URL(),
	}, nil
}

// Delete removes the blob; an already-missing blob counts as success.
func (d *azureDriver) Delete(ctx context.Context, filename string) error {
	if _, err := d.client.DeleteBlob(ctx, d.container, filename, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil
		}
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (d *azureDriver) URL(_ context.Context, filename string, isPublic bool) (string, error) {
	client := d.blobClient(filename)
	if isPublic {
		return client.URL(), nil
	}

	signed, err := client.GetSASURL(
		sas.BlobPermissions{Read: true},
		time.Now().UTC().Add(signedURLTTL),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("sign blob url: %w", err)
	}
	return signed, nil
}

func (d *azureDriver) Exists(ctx context.Context, filename string) bool {
	_, err := d.blobClient(filename).GetProperties(ctx, nil)
	return err == nil
}

var _ Driver = (*azureDriver)(nil)
