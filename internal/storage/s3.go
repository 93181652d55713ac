package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"rando/internal/config"
)

// S3Service is a client for S3-compatible storage. It reads source documents
// for s3:// URLs and stores scene documents in its bucket.
type S3Service struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewS3Service connects to the MinIO server described by cfg.
func NewS3Service(cfg config.MinioConfig, logger *slog.Logger) (*S3Service, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio endpoint, access key and secret key are required")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger.Info("connected to MinIO", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return &S3Service{client: minioClient, bucket: cfg.Bucket, logger: logger}, nil
}

// CreateBucket makes bucketName unless it already exists.
func (s *S3Service) CreateBucket(ctx context.Context, bucketName string, location string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		err = s.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			return false, err
		}
		s.logger.Info("created bucket", "bucket", bucketName)
	}
	return true, nil
}

// GetObject reads a whole object.
func (s *S3Service) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	// GetObject is lazy: a missing key only shows up on first read.
	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("object %s/%s does not exist: %w", bucket, key, err)
		}
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}

	s.logger.Debug("read object", "bucket", bucket, "key", key, "bytes", len(data))
	return data, nil
}

// PutJSON stores data under key in the service bucket, replacing any previous
// version.
func (s *S3Service) PutJSON(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("failed to store object in S3: %w", err)
	}

	s.logger.Info("stored scene document", "bucket", s.bucket, "key", key, "bytes", len(data))
	return nil
}
