package storage

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/receiptops/receiptstack/config"
	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/filestore"
	"github.com/receiptops/receiptstack/internal/models"
)

type fakeS3Client struct {
	existing map[string]bool
	uploaded []string
	err      error
}

func (f *fakeS3Client) Upload(ctx context.Context, input s3manager.UploadInput) error {
	if f.err != nil {
		return f.err
	}
	f.uploaded = append(f.uploaded, *input.Key)
	return nil
}

func (f *fakeS3Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.existing[key], nil
}

func (f *fakeS3Client) Delete(ctx context.Context, bucket, key string) error {
	return nil
}

func setupSync(t *testing.T, client *fakeS3Client) (*storageSyncService, string) {
	t.Helper()

	dir := t.TempDir()
	fileStore, err := filestore.NewLocalFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, fileStore.Save("stored.jpg", []byte("jpeg-bytes")))

	service := NewStorageSyncService(client, fileStore, &config.S3StorageConfig{
		ReceiptBucket: "receipts",
		PathPrefix:    "Receipts",
	})
	return service.(*storageSyncService), dir
}

func TestSyncReceipt_UploadsNewObject(t *testing.T) {
	client := &fakeS3Client{existing: map[string]bool{}}
	service, _ := setupSync(t, client)

	result, err := service.SyncReceipt(context.Background(), &models.Receipt{
		Filename: "stored.jpg",
		Vendor:   "Acme Diner",
		Amount:   23.45,
		Date:     "2025-11-02",
	})

	require.NoError(t, err)
	assert.Equal(t, enum.SyncResultCreated, result)
	require.Len(t, client.uploaded, 1)
	assert.Equal(t, "Receipts/2025-11-02/Acme_Diner_23.45.jpg", client.uploaded[0])
}

func TestSyncReceipt_AlreadyExists(t *testing.T) {
	client := &fakeS3Client{existing: map[string]bool{
		"Receipts/2025-11-02/Acme_23.45.jpg": true,
	}}
	service, _ := setupSync(t, client)

	result, err := service.SyncReceipt(context.Background(), &models.Receipt{
		Filename: "stored.jpg",
		Vendor:   "Acme",
		Amount:   23.45,
		Date:     "2025-11-02",
	})

	require.NoError(t, err)
	assert.Equal(t, enum.SyncResultAlreadyExists, result)
	assert.Empty(t, client.uploaded)
}

func TestSyncReceipt_ClientFailure(t *testing.T) {
	client := &fakeS3Client{err: errors.New("s3 unreachable")}
	service, _ := setupSync(t, client)

	result, err := service.SyncReceipt(context.Background(), &models.Receipt{Filename: "stored.jpg"})

	assert.Error(t, err)
	assert.Equal(t, enum.SyncResultFailed, result)
}

func TestObjectKey_Placeholders(t *testing.T) {
	service, _ := setupSync(t, &fakeS3Client{})

	key := service.objectKey(&models.Receipt{Filename: "stored.pdf"})

	assert.Equal(t, "Receipts/unknown-date/unknown-vendor_0.00.pdf", key)
}

func TestObjectKey_SanitizesVendor(t *testing.T) {
	service, _ := setupSync(t, &fakeS3Client{})

	key := service.objectKey(&models.Receipt{
		Filename: "stored.jpg",
		Vendor:   "Café / Bar!!",
		Amount:   7.5,
		Date:     "2025-11-02",
	})

	assert.Equal(t, "Receipts/2025-11-02/Caf_Bar_7.50.jpg", key)
}
