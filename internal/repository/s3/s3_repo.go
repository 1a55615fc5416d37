package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	s3client "github.com/vertiljivenson9/Project-prey/pkg/client/s3"
)

type S3Repo struct {
	StorageS3 *s3client.StorageS3
}

func NewS3Repo(storageS3 *s3client.StorageS3) *S3Repo {
	return &S3Repo{
		StorageS3: storageS3,
	}
}

// UploadArchive streams a local zip file into the bucket under key.
// Re-uploads overwrite the previous object.
func (s *S3Repo) UploadArchive(ctx context.Context, key, zipPath string) error {
	if s.StorageS3 == nil || s.StorageS3.Client == nil {
		return fmt.Errorf("s3 client not initialized")
	}

	_, err := s.StorageS3.Client.FPutObject(
		ctx,
		s.StorageS3.Bucket,
		key,
		zipPath,
		minio.PutObjectOptions{
			ContentType: "application/zip",
		},
	)
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}

	return nil
}

// GetArchiveReader returns the archive contents and size for streaming to
// a download response.
func (s *S3Repo) GetArchiveReader(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if s.StorageS3 == nil || s.StorageS3.Client == nil {
		return nil, 0, fmt.Errorf("s3 client not initialized")
	}

	stat, err := s.StorageS3.Client.StatObject(ctx, s.StorageS3.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("s3 stat object: %w", err)
	}

	obj, err := s.StorageS3.Client.GetObject(ctx, s.StorageS3.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("s3 get object: %w", err)
	}

	return obj, stat.Size, nil
}
