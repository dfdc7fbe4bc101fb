package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"recipedia/internal/config"
)

// minioAPI narrows *minio.Client to the calls the store needs, so tests can
// run without a live object-storage server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Minio stores images in an S3-compatible bucket.
type Minio struct {
	api    minioAPI
	bucket string
}

// NewMinio connects to the configured object storage endpoint and ensures the
// bucket exists.
func NewMinio(ctx context.Context, cfg config.MinioConfig) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}
	return newMinioWithAPI(ctx, client, cfg.Bucket)
}

func newMinioWithAPI(ctx context.Context, api minioAPI, bucket string) (*Minio, error) {
	m := &Minio{api: api, bucket: bucket}

	exists, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return m, nil
}

// Save implements Store.
func (m *Minio) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	key, err := NewKey(originalName)
	if err != nil {
		return "", err
	}
	if _, err := m.api.PutObject(ctx, m.bucket, key, r, -1, minio.PutObjectOptions{}); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return key, nil
}

// Open implements Store.
func (m *Minio) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.api.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return obj, nil
}

// Remove implements Store.
func (m *Minio) Remove(ctx context.Context, key string) error {
	if err := m.api.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}
