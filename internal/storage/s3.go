package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage keeps assets in a bucket using the asset path as the object key.
type S3Storage struct {
	client s3API
	bucket string
	now    func() time.Time
}

func NewS3Storage(awsCfg aws.Config, bucket string) *S3Storage {
	return &S3Storage{client: s3.NewFromConfig(awsCfg), bucket: bucket, now: time.Now}
}

func (s *S3Storage) Save(ctx context.Context, folder Folder, filename, contentType string, data io.Reader) (string, error) {
	key := assetPath(folder, filename, s.now())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return key, nil
}

func (s *S3Storage) Delete(ctx context.Context, assetPath string) error {
	if _, err := relativeKey(assetPath); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(assetPath),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
