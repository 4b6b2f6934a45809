package uploads

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"Pressroom/internal/core/posts"
)

// S3Config holds the connection settings of an S3-compatible bucket
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// objectClient is the part of *minio.Client the store uses
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// S3Store writes uploads as objects in a bucket. Objects are keyed by their
// stored name, so a same-millisecond collision replaces the earlier object.
type S3Store struct {
	client objectClient
	now    func() time.Time
	bucket string
}

// NewS3Store connects to the bucket described by cfg
func NewS3Store(cfg S3Config) (*S3Store, error) {
	client, err := minio.New(strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://"), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return newS3Store(client, cfg.Bucket), nil
}

func newS3Store(client objectClient, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket, now: time.Now}
}

// EnsureBucket creates the bucket when it does not exist yet
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	log.Info().Str("bucket", s.bucket).Msg("created upload bucket")
	return nil
}

// Save uploads the file under its stored name
func (s *S3Store) Save(ctx context.Context, upload posts.Upload, file io.Reader) (*posts.StoredFile, error) {
	name, err := StoredName(s.now(), upload.OriginalName)
	if err != nil {
		return nil, err
	}

	size := upload.Size
	if size <= 0 {
		size = -1
	}
	info, err := s.client.PutObject(ctx, s.bucket, name, file, size, minio.PutObjectOptions{
		ContentType: upload.MimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put object %s: %w", name, err)
	}

	return &posts.StoredFile{
		Destination: s.bucket,
		Filename:    name,
		Path:        s.bucket + "/" + name,
		Size:        info.Size,
	}, nil
}

// Remove deletes a stored object. Removing a missing object succeeds.
func (s *S3Store) Remove(ctx context.Context, filename string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, filename, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", filename, err)
	}
	return nil
}
