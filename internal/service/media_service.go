package service

import (
	"cms-go/internal/model"
	"cms-go/internal/repository"
	"cms-go/pkg/log"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaStore 是媒体文件所在的对象存储。
type MediaStore interface {
	Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, objectName string) error
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// MediaUpload 描述一次上传的文件。
type MediaUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// MediaService 接口定义了媒体库相关的业务操作。
type MediaService interface {
	Upload(ctx context.Context, uploaderID uint, upload MediaUpload) (*model.Media, error)
	List() ([]model.Media, error)
	Delete(ctx context.Context, id uint) error
	URL(ctx context.Context, id uint) (string, error)
}

type mediaService struct {
	mediaRepo repository.MediaRepository
	store     MediaStore
	urlExpiry time.Duration
}

// NewMediaService 创建一个新的 MediaService 实例。
func NewMediaService(mediaRepo repository.MediaRepository, store MediaStore, urlExpiry time.Duration) MediaService {
	return &mediaService{mediaRepo: mediaRepo, store: store, urlExpiry: urlExpiry}
}

// Upload 先写对象存储再写数据库，数据库写入失败时删除已上传的对象。
func (s *mediaService) Upload(ctx context.Context, uploaderID uint, upload MediaUpload) (*model.Media, error) {
	fileName := path.Base(strings.ReplaceAll(strings.TrimSpace(upload.FileName), "\\", "/"))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, invalidf("file name is required")
	}
	if upload.Reader == nil {
		return nil, invalidf("file is required")
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := fmt.Sprintf("media/%s/%s", uuid.NewString(), fileName)
	if err := s.store.Put(ctx, objectName, upload.Reader, upload.Size, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}

	media := &model.Media{
		ObjectName:  objectName,
		FileName:    fileName,
		ContentType: contentType,
		Size:        upload.Size,
		UploadedBy:  uploaderID,
	}
	if err := s.mediaRepo.Create(media); err != nil {
		if rmErr := s.store.Remove(ctx, objectName); rmErr != nil {
			log.Warnw("failed to clean up orphaned media object", "object", objectName, "error", rmErr)
		}
		return nil, err
	}
	log.Infof("[MediaService] 媒体文件已上传, id=%d, object=%s, size=%d", media.ID, objectName, media.Size)
	return media, nil
}

func (s *mediaService) List() ([]model.Media, error) {
	return s.mediaRepo.FindAll()
}

func (s *mediaService) Delete(ctx context.Context, id uint) error {
	media, err := s.mediaRepo.FindByID(id)
	if err != nil {
		return notFound(err, ErrMediaNotFound)
	}
	if err := s.store.Remove(ctx, media.ObjectName); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return s.mediaRepo.Delete(id)
}

func (s *mediaService) URL(ctx context.Context, id uint) (string, error) {
	media, err := s.mediaRepo.FindByID(id)
	if err != nil {
		return "", notFound(err, ErrMediaNotFound)
	}
	return s.store.PresignedURL(ctx, media.ObjectName, s.urlExpiry)
}
