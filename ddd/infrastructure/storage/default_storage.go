package storage

import (
	"fmt"
	"strings"
	"sync"

	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/internal/resource"
	"video-ingest-service/pkg/assert"
	"video-ingest-service/pkg/config"
)

var (
	blobStoreOnce    sync.Once
	defaultBlobStore gateway.BlobStore
)

// DefaultBlobStore 按 storage.driver 选择 MinIO 或 S3
func DefaultBlobStore() gateway.BlobStore {
	assert.NotCircular()
	blobStoreOnce.Do(func() {
		defaultBlobStore = NewBlobStoreFor(config.GetGlobalConfig())
	})
	assert.NotNil(defaultBlobStore)
	return defaultBlobStore
}

// NewBlobStoreFor 根据配置创建存储实现，依赖的资源需已打开
func NewBlobStoreFor(cfg *config.Config) gateway.BlobStore {
	if cfg == nil {
		panic("global config not initialized before blob store")
	}
	base := PublicBase(cfg)
	if cfg.Storage.Driver == "s3" {
		return NewS3Storage(resource.DefaultAWSResource().S3(), cfg.Storage.Bucket, base)
	}
	return NewMinioStorage(resource.DefaultMinioResource().GetClient(), cfg.Storage.Bucket, base)
}

// PublicBase 未配置 public.storage_base 时按驱动推导
func PublicBase(cfg *config.Config) string {
	if cfg.Public.StorageBase != "" {
		return cfg.Public.StorageBase
	}
	if cfg.Storage.Driver == "s3" {
		if cfg.AWS.S3Endpoint != "" {
			return strings.TrimRight(cfg.AWS.S3Endpoint, "/") + "/" + cfg.Storage.Bucket
		}
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Storage.Bucket, cfg.AWS.Region)
	}
	scheme := "http"
	if cfg.Minio.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Minio.Endpoint, cfg.Storage.Bucket)
}
