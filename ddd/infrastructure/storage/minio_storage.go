package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"

	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/pkg/logger"
)

// minioObjectAPI minio.Client 中用到的方法
type minioObjectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioStorage MinIO存储实现
type MinioStorage struct {
	client     minioObjectAPI
	bucketName string
	publicBase string
}

// NewMinioStorage 创建MinIO存储实例
func NewMinioStorage(client minioObjectAPI, bucketName, publicBase string) gateway.BlobStore {
	return &MinioStorage{
		client:     client,
		bucketName: bucketName,
		publicBase: publicBase,
	}
}

// Put 上传对象，locator 即对象 key
func (s *MinioStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = getContentTypeFromExtension(key)
	}
	info, err := s.client.PutObject(ctx, s.bucketName, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("Failed to upload object to MinIO", map[string]interface{}{
			"object_key": key,
			"error":      err.Error(),
		})
		return "", fmt.Errorf("upload object to minio failed: %w", err)
	}

	logger.Info("Object uploaded", map[string]interface{}{
		"object_key": key,
		"size":       info.Size,
	})
	return key, nil
}

// Delete 删除对象
func (s *MinioStorage) Delete(ctx context.Context, locator string) error {
	if locator == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucketName, locator, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object from minio failed: %w", err)
	}
	return nil
}

// PublicURL 对外访问地址
func (s *MinioStorage) PublicURL(locator string) string {
	return joinPublicURL(s.publicBase, locator)
}

func joinPublicURL(base, locator string) string {
	if locator == "" {
		return ""
	}
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return locator
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(locator, "/")
}

// getContentTypeFromExtension 根据文件扩展名获取内容类型
func getContentTypeFromExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
