package repository

import (
	"cms-go/internal/model"

	"gorm.io/gorm"
)

// ContentRepository 定义了内容页面的持久化操作。
type ContentRepository interface {
	Create(content *model.Content) error
	FindByID(id uint) (*model.Content, error)
	FindBySlug(slug string) (*model.Content, error)
	FindAll() ([]model.Content, error)
	Update(content *model.Content) error
	Delete(id uint) error
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository 创建一个新的 ContentRepository 实例。
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) Create(content *model.Content) error {
	return r.db.Create(content).Error
}

func (r *contentRepository) FindByID(id uint) (*model.Content, error) {
	var content model.Content
	if err := r.db.First(&content, id).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *contentRepository) FindBySlug(slug string) (*model.Content, error) {
	var content model.Content
	if err := r.db.Where("slug = ?", slug).First(&content).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *contentRepository) FindAll() ([]model.Content, error) {
	var contents []model.Content
	err := r.db.Order("id asc").Find(&contents).Error
	return contents, err
}

func (r *contentRepository) Update(content *model.Content) error {
	return r.db.Save(content).Error
}

func (r *contentRepository) Delete(id uint) error {
	return r.db.Delete(&model.Content{}, id).Error
}
