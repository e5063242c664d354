// Package storage 提供了与对象存储服务（MinIO）交互的功能。
package storage

import (
	"cms-go/internal/config"
	"cms-go/pkg/log"
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient 是一个全局的 MinIO 客户端实例。
var MinioClient *minio.Client

// InitMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
func InitMinIO(cfg config.MinIOConfig) {
	var err error

	// 1. 初始化 MinIO 客户端
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}
	log.Info("MinIO 客户端初始化成功")

	// 2. 检查存储桶是否存在，如果不存在则创建
	ctx := context.Background()
	exists, err := MinioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		log.Fatal("检查 MinIO 存储桶失败", err)
	}
	if exists {
		log.Infof("存储桶 '%s' 已存在", cfg.BucketName)
		return
	}

	log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
	if err := MinioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
		log.Fatal("创建 MinIO 存储桶失败", err)
	}
	log.Infof("存储桶 '%s' 创建成功", cfg.BucketName)
}

// Bucket 把客户端和存储桶名绑定在一起，实现媒体库使用的对象存储接口。
type Bucket struct {
	client *minio.Client
	name   string
}

// NewBucket 创建一个新的 Bucket。
func NewBucket(client *minio.Client, name string) *Bucket {
	return &Bucket{client: client, name: name}
}

// Put 上传一个对象，size 未知时传 -1。
func (b *Bucket) Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.name, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (b *Bucket) Remove(ctx context.Context, objectName string) error {
	return b.client.RemoveObject(ctx, b.name, objectName, minio.RemoveObjectOptions{})
}

// PresignedURL 生成一个限时的下载链接。
func (b *Bucket) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	presignedURL, err := b.client.PresignedGetObject(ctx, b.name, objectName, expiry, nil)
	if err != nil {
		log.Errorf("生成预签名 URL 失败: %s", err)
		return "", err
	}
	return presignedURL.String(), nil
}
