// Package exports produces CSV snapshots of the pipeline. Snapshots are
// uploaded to object storage and handed out as short-lived presigned links;
// without storage configured the CSV is streamed in the response instead.
package exports

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"salespipe_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const presignExpiry = 15 * time.Minute

// Storage uploads export files to a MinIO bucket and presigns download URLs.
type Storage struct {
	client *minio.Client
	bucket string
}

// NewStorage connects to the configured MinIO endpoint and makes sure the
// exports bucket exists.
func NewStorage(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object storage: %w", err)
	}

	bucket := cfg.GetMinioBucketExports()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check exports bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create exports bucket: %w", err)
		}
	}

	return &Storage{client: client, bucket: bucket}, nil
}

// Put uploads the export and returns a presigned download URL.
func (s *Storage) Put(ctx context.Context, objectName string, data []byte) (*url.URL, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	link, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, presignExpiry, nil)
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}
	return link, nil
}
