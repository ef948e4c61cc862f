package objectclient

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	cfg "github.com/markdave123-py/chatterbox/internal/config"
	"github.com/markdave123-py/chatterbox/internal/core"
	"github.com/markdave123-py/chatterbox/internal/metrics"
)

var _ core.ObjectClient = (*S3Client)(nil)

// defaultUploadTimeout applies when no UPLOAD_TIMEOUT is configured.
const defaultUploadTimeout = 2 * time.Minute

type S3Client struct {
	client        *s3.Client
	uploader      *manager.Uploader
	region        string
	uploadTimeout time.Duration
	log           zerolog.Logger
}

// NewS3Client builds the S3 adapter. Static credentials are used when configured,
// otherwise the default AWS credential chain applies. SDK retries are disabled:
// storage failures are surfaced to the caller as-is.
func NewS3Client(ctx context.Context, c *cfg.Config, log zerolog.Logger) (*S3Client, error) {
	if c.AwsRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(c.AwsRegion),
		config.WithRetryMaxAttempts(1),
	}
	if c.AwsAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AwsAccessKey, c.AwsSecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(c.S3Endpoint)
		}
		o.UsePathStyle = c.S3UsePathStyle
	})

	logger := log.With().Str("component", "s3-storage").Logger()
	logger.Info().Str("region", c.AwsRegion).Msg("S3 client initialized")

	uploadTimeout := c.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = defaultUploadTimeout
	}

	return &S3Client{
		client:        client,
		uploader:      manager.NewUploader(client),
		region:        c.AwsRegion,
		uploadTimeout: uploadTimeout,
		log:           logger,
	}, nil
}

// CreateBucket provisions a bucket in the configured region.
func (c *S3Client) CreateBucket(ctx context.Context, bucket string) error {
	ctxCreate, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 rejects an explicit location constraint.
	if c.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}

	start := time.Now()
	_, err := c.client.CreateBucket(ctxCreate, input)
	observe("create_bucket", start, err)
	if err != nil {
		return fmt.Errorf("s3 create bucket failed: %w", err)
	}
	c.log.Info().Str("bucket", bucket).Msg("bucket created")
	return nil
}

// PutObject uploads body under bucket/key, replacing any existing object.
func (c *S3Client) PutObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}

	// Same budget as the upload route's request timeout.
	ctxUpload, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	start := time.Now()
	_, err := c.uploader.Upload(ctxUpload, input)
	observe("put_object", start, err)
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}

func (c *S3Client) DeleteObject(ctx context.Context, bucket, key string) error {
	ctxDel, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	_, err := c.client.DeleteObject(ctxDel, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	observe("delete_object", start, err)
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

func observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.RecordS3Operation(op, status, time.Since(start).Seconds())
}
