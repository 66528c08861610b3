package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/pkg/logger"
)

// s3ObjectAPI s3.Client 中用到的方法
type s3ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage S3 存储实现，MediaConvert 直接读写同一个桶
type S3Storage struct {
	client     s3ObjectAPI
	bucketName string
	publicBase string
}

// NewS3Storage 创建S3存储实例
func NewS3Storage(client s3ObjectAPI, bucketName, publicBase string) gateway.BlobStore {
	return &S3Storage{client: client, bucketName: bucketName, publicBase: publicBase}
}

func (s *S3Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = getContentTypeFromExtension(key)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		logger.Error("Failed to upload object to S3", map[string]interface{}{
			"object_key": key,
			"error":      err.Error(),
		})
		return "", fmt.Errorf("upload object to s3 failed: %w", err)
	}
	logger.Info("Object uploaded", map[string]interface{}{"object_key": key, "size": size})
	return key, nil
}

func (s *S3Storage) Delete(ctx context.Context, locator string) error {
	if locator == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(locator),
	})
	if err != nil {
		return fmt.Errorf("delete object from s3 failed: %w", err)
	}
	return nil
}

func (s *S3Storage) PublicURL(locator string) string {
	return joinPublicURL(s.publicBase, locator)
}
