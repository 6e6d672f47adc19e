package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/IvanShishkin/dupehound/internal/config"
	"github.com/IvanShishkin/dupehound/internal/metrics"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Backend keeps the session in one S3 (or MinIO) object
type S3Backend struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Backend creates a backend for bucket/key. Static credentials are used
// when an access key is configured, otherwise the default AWS chain.
func NewS3Backend(ctx context.Context, cfg config.S3Config, bucket, key string) (*S3Backend, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3Backend{
		client: client,
		bucket: bucket,
		key:    key,
	}, nil
}

func (b *S3Backend) Type() string { return "s3" }
func (b *S3Backend) Location() string { return s3Scheme + b.bucket + "/" + b.key }

// Read downloads the object
func (b *S3Backend) Read(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		metrics.RecordArchiveOperation(b.Type(), "read", false)
		return nil, fmt.Errorf("get object %s: %w", b.Location(), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	metrics.RecordArchiveOperation(b.Type(), "read", err == nil)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", b.Location(), err)
	}
	return data, nil
}

// Write uploads data, replacing the object
func (b *S3Backend) Write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	metrics.RecordArchiveOperation(b.Type(), "write", err == nil)
	if err != nil {
		return fmt.Errorf("put object %s: %w", b.Location(), err)
	}
	return nil
}
