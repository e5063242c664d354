package repository

import (
	"cms-go/internal/model"
	"database/sql"

	"gorm.io/gorm"
)

// TemplateRepository 管理模板头部（templates）和只追加的版本日志（template_versions）。
type TemplateRepository interface {
	Create(tpl *model.Template) error
	FindByID(id uint) (*model.Template, error)
	FindAll() ([]model.Template, error)
	Update(tpl *model.Template) error
	UpdatePublished(id uint, published bool) error
	Delete(id uint) error

	CreateVersion(version *model.TemplateVersion) error
	MaxVersion(templateID uint) (int, error)
	FindVersions(templateID uint) ([]model.TemplateVersion, error)
	FindVersion(templateID uint, version int) (*model.TemplateVersion, error)

	Transaction(fn func(repo TemplateRepository) error) error
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建一个新的 TemplateRepository 实例。
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(tpl *model.Template) error {
	return r.db.Create(tpl).Error
}

func (r *templateRepository) FindByID(id uint) (*model.Template, error) {
	var tpl model.Template
	if err := r.db.First(&tpl, id).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepository) FindAll() ([]model.Template, error) {
	var tpls []model.Template
	err := r.db.Order("id asc").Find(&tpls).Error
	return tpls, err
}

func (r *templateRepository) Update(tpl *model.Template) error {
	return r.db.Save(tpl).Error
}

// UpdatePublished 只修改发布状态，不产生新版本。
func (r *templateRepository) UpdatePublished(id uint, published bool) error {
	return r.db.Model(&model.Template{}).Where("id = ?", id).Update("published", published).Error
}

// Delete 删除模板及其全部历史版本。
func (r *templateRepository) Delete(id uint) error {
	if err := r.db.Where("template_id = ?", id).Delete(&model.TemplateVersion{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.Template{}, id).Error
}

func (r *templateRepository) CreateVersion(version *model.TemplateVersion) error {
	return r.db.Create(version).Error
}

// MaxVersion 返回模板当前最大的版本号，没有版本时返回 0。
func (r *templateRepository) MaxVersion(templateID uint) (int, error) {
	var maxVersion sql.NullInt64
	if err := r.db.Model(&model.TemplateVersion{}).
		Where("template_id = ?", templateID).
		Select("MAX(version)").
		Scan(&maxVersion).Error; err != nil {
		return 0, err
	}
	if !maxVersion.Valid {
		return 0, nil
	}
	return int(maxVersion.Int64), nil
}

// FindVersions 按版本号升序返回模板的全部历史。
func (r *templateRepository) FindVersions(templateID uint) ([]model.TemplateVersion, error) {
	var versions []model.TemplateVersion
	err := r.db.Where("template_id = ?", templateID).Order("version asc").Find(&versions).Error
	return versions, err
}

func (r *templateRepository) FindVersion(templateID uint, version int) (*model.TemplateVersion, error) {
	var v model.TemplateVersion
	err := r.db.Where("template_id = ? AND version = ?", templateID, version).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *templateRepository) Transaction(fn func(repo TemplateRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&templateRepository{db: tx})
	})
}
