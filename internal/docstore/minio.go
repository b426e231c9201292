package docstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pkordes/trip-planner/internal/domain"
)

// RefScheme prefixes the references the MinIO encoder stores.
const RefScheme = "minio://"

// NewMinIOClient connects to an S3-compatible endpoint with static keys.
func NewMinIOClient(endpoint, key, secret string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: useSSL,
	})
}

// MinIO uploads documents to a bucket and stores "minio://bucket/key".
type MinIO struct {
	client *minio.Client
	bucket string
}

var (
	_ Encoder = (*MinIO)(nil)
	_ Remover = (*MinIO)(nil)
)

// NewMinIO returns an encoder writing to bucket, creating it if needed.
func NewMinIO(ctx context.Context, client *minio.Client, bucket string) (*MinIO, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("docstore.NewMinIO: bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("docstore.NewMinIO: make bucket: %w", err)
		}
	}
	return &MinIO{client: client, bucket: bucket}, nil
}

func (m *MinIO) Encode(ctx context.Context, p domain.FilePayload) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType:  p.ContentType,
		UserMetadata: map[string]string{"filename": p.Name},
	}
	info, err := m.client.PutObject(ctx, m.bucket, p.Key, p.Reader, p.Size, opts)
	if err != nil {
		return "", fmt.Errorf("docstore.MinIO.Encode: %w", err)
	}
	return RefScheme + info.Bucket + "/" + info.Key, nil
}

// Remove deletes the object behind ref. Refs to other buckets are rejected.
func (m *MinIO) Remove(ctx context.Context, ref string) error {
	key, ok := strings.CutPrefix(ref, RefScheme+m.bucket+"/")
	if !ok || key == "" {
		return fmt.Errorf("docstore.MinIO.Remove: %q is not an object in bucket %s", ref, m.bucket)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("docstore.MinIO.Remove: %w", err)
	}
	return nil
}
