package repository

import (
	"cms-go/internal/model"

	"gorm.io/gorm"
)

// MediaRepository 定义了媒体文件元数据的持久化操作。
type MediaRepository interface {
	Create(media *model.Media) error
	FindByID(id uint) (*model.Media, error)
	FindAll() ([]model.Media, error)
	Delete(id uint) error
}

type mediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository 创建一个新的 MediaRepository 实例。
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(media *model.Media) error {
	return r.db.Create(media).Error
}

func (r *mediaRepository) FindByID(id uint) (*model.Media, error) {
	var media model.Media
	if err := r.db.First(&media, id).Error; err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *mediaRepository) FindAll() ([]model.Media, error) {
	var list []model.Media
	err := r.db.Order("created_at desc, id desc").Find(&list).Error
	return list, err
}

func (r *mediaRepository) Delete(id uint) error {
	return r.db.Delete(&model.Media{}, id).Error
}
