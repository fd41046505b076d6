package aws_client

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"

	"github.com/receiptops/receiptstack/config"
	"github.com/receiptops/receiptstack/internal/tracing"
)

type S3Client interface {
	Upload(ctx context.Context, uploadContainer s3manager.UploadInput) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Delete(ctx context.Context, bucket, key string) error
}

type s3Client struct {
	Uploader *s3manager.Uploader
	Session  *session.Session
}

func NewS3Client(cfg *config.S3StorageConfig) S3Client {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.AccessKeySecret, "")
	}

	s := session.Must(session.NewSession(awsConfig))
	return &s3Client{
		Uploader: s3manager.NewUploader(s),
		Session:  s,
	}
}

func (s *s3Client) Upload(ctx context.Context, uploadContainer s3manager.UploadInput) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "s3Client.Upload")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	_, err := s.Uploader.UploadWithContext(ctx, &uploadContainer)
	return err
}

func (s *s3Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "s3Client.Exists")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	svc := s3.New(s.Session)
	_, err := svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && (aerr.Code() == "NotFound" || aerr.Code() == s3.ErrCodeNoSuchKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *s3Client) Delete(ctx context.Context, bucket, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "s3Client.Delete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	svc := s3.New(s.Session)
	_, err := svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}
