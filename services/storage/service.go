package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/receiptops/receiptstack/config"
	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/models"
	"github.com/receiptops/receiptstack/internal/tracing"
	"github.com/receiptops/receiptstack/services/storage/aws_client"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// storageSyncService mirrors processed receipts into object storage under a
// human-browsable key layout grouped by transaction date.
type storageSyncService struct {
	client     aws_client.S3Client
	fileStore  interfaces.FileStore
	bucketName string
	pathPrefix string
}

func NewStorageSyncService(client aws_client.S3Client, fileStore interfaces.FileStore, cfg *config.S3StorageConfig) interfaces.StorageSyncService {
	return &storageSyncService{
		client:     client,
		fileStore:  fileStore,
		bucketName: cfg.ReceiptBucket,
		pathPrefix: cfg.PathPrefix,
	}
}

func (s *storageSyncService) SyncReceipt(ctx context.Context, receipt *models.Receipt) (enum.SyncResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "storageSyncService.SyncReceipt")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, receipt.ID)

	key := s.objectKey(receipt)
	span.LogFields(log.String("key", key))

	exists, err := s.client.Exists(ctx, s.bucketName, key)
	if err != nil {
		tracing.TraceErr(span, err)
		return enum.SyncResultFailed, errors.Wrap(err, "failed to check object existence")
	}
	if exists {
		return enum.SyncResultAlreadyExists, nil
	}

	content, err := s.fileStore.Read(receipt.Filename)
	if err != nil {
		tracing.TraceErr(span, err)
		return enum.SyncResultFailed, errors.Wrap(err, "failed to read stored receipt file")
	}

	contentType := mime.TypeByExtension(filepath.Ext(receipt.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err = s.client.Upload(ctx, s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return enum.SyncResultFailed, errors.Wrap(err, "failed to upload receipt")
	}

	return enum.SyncResultCreated, nil
}

// objectKey builds "{prefix}/{date}/{vendor}_{amount}{ext}". Missing fields
// fall back to placeholders so unfixed receipts still land somewhere findable.
func (s *storageSyncService) objectKey(receipt *models.Receipt) string {
	date := receipt.Date
	if date == "" {
		date = "unknown-date"
	}

	vendor := receipt.Vendor
	if vendor == "" {
		vendor = "unknown-vendor"
	}
	vendor = unsafeKeyChars.ReplaceAllString(vendor, "_")
	vendor = strings.Trim(vendor, "_")

	amount := "0.00"
	if receipt.Amount > 0 {
		amount = fmt.Sprintf("%.2f", receipt.Amount)
	}

	ext := filepath.Ext(receipt.Filename)

	return fmt.Sprintf("%s/%s/%s_%s%s", s.pathPrefix, date, vendor, amount, ext)
}
