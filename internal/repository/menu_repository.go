package repository

import (
	"cms-go/internal/model"
	"database/sql"

	"gorm.io/gorm"
)

// MenuRepository 定义了菜单表的持久化操作。
// 树结构不在数据库中存储，只存 parent_id 和 sort_order。
type MenuRepository interface {
	Create(menu *model.Menu) error
	FindByID(id uint) (*model.Menu, error)
	FindAll() ([]model.Menu, error)
	FindVisible() ([]model.Menu, error)
	FindSiblings(parentID *uint) ([]model.Menu, error)
	MaxSortOrder(parentID *uint) (int, error)
	CountChildren(id uint) (int64, error)
	// CountByTarget 统计指向某个版块或内容页面的菜单数量。
	CountByTarget(menuType model.MenuType, targetID uint) (int64, error)
	Update(menu *model.Menu) error
	UpdatePosition(id uint, parentID *uint, sortOrder int) error
	Delete(id uint) error
	// Transaction 在同一个数据库事务中执行 fn，fn 返回错误时整体回滚。
	Transaction(fn func(repo MenuRepository) error) error
}

type menuRepository struct {
	db *gorm.DB
}

// NewMenuRepository 创建一个新的 MenuRepository 实例。
func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{db: db}
}

// parentScope 处理 parent_id 为 NULL 的根节点查询。
func parentScope(parentID *uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if parentID == nil {
			return db.Where("parent_id IS NULL")
		}
		return db.Where("parent_id = ?", *parentID)
	}
}

func (r *menuRepository) Create(menu *model.Menu) error {
	return r.db.Create(menu).Error
}

func (r *menuRepository) FindByID(id uint) (*model.Menu, error) {
	var menu model.Menu
	if err := r.db.First(&menu, id).Error; err != nil {
		return nil, err
	}
	return &menu, nil
}

// FindAll 返回全部菜单记录，按 sort_order 排序。
func (r *menuRepository) FindAll() ([]model.Menu, error) {
	var menus []model.Menu
	err := r.db.Order("sort_order asc, id asc").Find(&menus).Error
	return menus, err
}

// FindVisible 只返回 visible = 1 的菜单记录。
func (r *menuRepository) FindVisible() ([]model.Menu, error) {
	var menus []model.Menu
	err := r.db.Where("visible = ?", true).Order("sort_order asc, id asc").Find(&menus).Error
	return menus, err
}

// FindSiblings 返回同一父节点下的所有节点。
func (r *menuRepository) FindSiblings(parentID *uint) ([]model.Menu, error) {
	var menus []model.Menu
	err := r.db.Scopes(parentScope(parentID)).Order("sort_order asc, id asc").Find(&menus).Error
	return menus, err
}

// MaxSortOrder 返回兄弟组中最大的 sort_order，空组返回 0。
func (r *menuRepository) MaxSortOrder(parentID *uint) (int, error) {
	var max sql.NullInt64
	err := r.db.Model(&model.Menu{}).
		Scopes(parentScope(parentID)).
		Select("MAX(sort_order)").
		Scan(&max).Error
	if err != nil || !max.Valid {
		return 0, err
	}
	return int(max.Int64), nil
}

func (r *menuRepository) CountChildren(id uint) (int64, error) {
	var total int64
	err := r.db.Model(&model.Menu{}).Where("parent_id = ?", id).Count(&total).Error
	return total, err
}

func (r *menuRepository) CountByTarget(menuType model.MenuType, targetID uint) (int64, error) {
	var total int64
	err := r.db.Model(&model.Menu{}).Where("type = ? AND target_id = ?", menuType, targetID).Count(&total).Error
	return total, err
}

func (r *menuRepository) Update(menu *model.Menu) error {
	return r.db.Save(menu).Error
}

// UpdatePosition 只更新节点的 parent_id 和 sort_order。
func (r *menuRepository) UpdatePosition(id uint, parentID *uint, sortOrder int) error {
	return r.db.Model(&model.Menu{}).Where("id = ?", id).Updates(map[string]interface{}{
		"parent_id":  parentID,
		"sort_order": sortOrder,
	}).Error
}

func (r *menuRepository) Delete(id uint) error {
	return r.db.Delete(&model.Menu{}, id).Error
}

func (r *menuRepository) Transaction(fn func(repo MenuRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&menuRepository{db: tx})
	})
}
