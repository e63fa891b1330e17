package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// allowed image content types for point and event photos
var imageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// StorageService handles S3-compatible storage for uploaded images
type StorageService struct {
	client     *minio.Client
	bucketName string
	region     string
}

// UploadResult contains information about an uploaded image
type UploadResult struct {
	Bucket      string
	Key         string
	Size        int64
	ContentType string
	ETag        string
}

// NewStorageService creates a new S3 storage service
func NewStorageService(endpoint, accessKey, secretKey, bucketName, region string, useSSL bool) (*StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &StorageService{
		client:     client,
		bucketName: bucketName,
		region:     region,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{
			Region: s.region,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// NewImageKey builds a unique object key for an uploaded image. kind is the
// owning entity ("points", "events", "avatars"); the extension comes from the
// content type.
func NewImageKey(kind, contentType string) (string, error) {
	ext, ok := imageContentTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported image content type %q", contentType)
	}
	return path.Join(kind, uuid.NewString()+ext), nil
}

// UploadImage uploads an image to S3 after validating its content type
func (s *StorageService) UploadImage(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error) {
	if _, ok := imageContentTypes[strings.ToLower(contentType)]; !ok {
		return nil, fmt.Errorf("unsupported image content type %q", contentType)
	}

	info, err := s.client.PutObject(ctx, s.bucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	return &UploadResult{
		Bucket:      info.Bucket,
		Key:         info.Key,
		Size:        info.Size,
		ContentType: contentType,
		ETag:        info.ETag,
	}, nil
}

// GetPresignedURL generates a presigned URL for downloading an image
func (s *StorageService) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucketName, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// Delete deletes an image from S3
func (s *StorageService) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// GetBucketName returns the bucket name
func (s *StorageService) GetBucketName() string {
	return s.bucketName
}
