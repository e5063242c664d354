package repository

import (
	"cms-go/internal/model"

	"gorm.io/gorm"
)

// BoardRepository 定义了版块和帖子的持久化操作。
type BoardRepository interface {
	Create(board *model.Board) error
	FindByID(id uint) (*model.Board, error)
	FindBySlug(slug string) (*model.Board, error)
	FindAll() ([]model.Board, error)
	Update(board *model.Board) error
	Delete(id uint) error

	CreatePost(post *model.Post) error
	FindPostByID(id uint) (*model.Post, error)
	FindPostsByBoard(boardID uint, offset, limit int) ([]model.Post, int64, error)
	FindPostIDsByBoard(boardID uint) ([]uint, error)
	UpdatePost(post *model.Post) error
	DeletePost(id uint) error
	IncrementViews(id uint) error
}

type boardRepository struct {
	db *gorm.DB
}

// NewBoardRepository 创建一个新的 BoardRepository 实例。
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepository{db: db}
}

func (r *boardRepository) Create(board *model.Board) error {
	return r.db.Create(board).Error
}

func (r *boardRepository) FindByID(id uint) (*model.Board, error) {
	var board model.Board
	if err := r.db.First(&board, id).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *boardRepository) FindBySlug(slug string) (*model.Board, error) {
	var board model.Board
	if err := r.db.Where("slug = ?", slug).First(&board).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *boardRepository) FindAll() ([]model.Board, error) {
	var boards []model.Board
	err := r.db.Order("id asc").Find(&boards).Error
	return boards, err
}

func (r *boardRepository) Update(board *model.Board) error {
	return r.db.Save(board).Error
}

// Delete 删除版块及其下所有帖子。
func (r *boardRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("board_id = ?", id).Delete(&model.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Board{}, id).Error
	})
}

func (r *boardRepository) CreatePost(post *model.Post) error {
	return r.db.Create(post).Error
}

func (r *boardRepository) FindPostByID(id uint) (*model.Post, error) {
	var post model.Post
	if err := r.db.First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindPostsByBoard 按创建时间倒序分页返回版块中的帖子。
func (r *boardRepository) FindPostsByBoard(boardID uint, offset, limit int) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	db := r.db.Model(&model.Post{}).Where("board_id = ?", boardID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// FindPostIDsByBoard 返回版块下全部帖子的 ID，删除版块前用于清理索引。
func (r *boardRepository) FindPostIDsByBoard(boardID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.Post{}).Where("board_id = ?", boardID).Pluck("id", &ids).Error
	return ids, err
}

func (r *boardRepository) UpdatePost(post *model.Post) error {
	return r.db.Save(post).Error
}

func (r *boardRepository) DeletePost(id uint) error {
	return r.db.Delete(&model.Post{}, id).Error
}

// IncrementViews 原子地增加帖子浏览数。
func (r *boardRepository) IncrementViews(id uint) error {
	return r.db.Model(&model.Post{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}
