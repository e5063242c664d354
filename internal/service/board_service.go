package service

import (
	"cms-go/internal/model"
	"cms-go/internal/repository"
	"cms-go/pkg/events"
	"cms-go/pkg/log"
	"cms-go/pkg/markdown"
	"context"
	"fmt"
	"strings"
)

// BoardInput 是创建或编辑版块时提交的字段。
type BoardInput struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
}

// PostInput 是创建或编辑帖子时提交的字段。
type PostInput struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
}

// PostPage 是分页的帖子列表。
type PostPage struct {
	Content       []model.Post `json:"content"`
	TotalElements int64        `json:"totalElements"`
	Size          int          `json:"size"`
	Number        int          `json:"number"`
}

// PostView 是公开接口返回的帖子，附带渲染后的 HTML。
type PostView struct {
	model.Post
	HTML string `json:"html"`
}

// BoardService 接口定义了版块和帖子相关的业务操作。
type BoardService interface {
	ListBoards() ([]model.Board, error)
	GetBoard(id uint) (*model.Board, error)
	CreateBoard(input BoardInput) (*model.Board, error)
	UpdateBoard(id uint, input BoardInput) (*model.Board, error)
	DeleteBoard(ctx context.Context, id uint) error

	ListPosts(boardID uint, page, size int) (*PostPage, error)
	GetPost(id uint) (*model.Post, error)
	// ViewPost 返回公开的帖子详情，并增加浏览数。
	ViewPost(id uint) (*PostView, error)
	CreatePost(ctx context.Context, boardID, authorID uint, input PostInput) (*model.Post, error)
	UpdatePost(ctx context.Context, id uint, input PostInput) (*model.Post, error)
	DeletePost(ctx context.Context, id uint) error
}

type boardService struct {
	boardRepo repository.BoardRepository
	menuRepo  repository.MenuRepository
	publisher IndexPublisher
}

// NewBoardService 创建一个新的 BoardService 实例。
func NewBoardService(boardRepo repository.BoardRepository, menuRepo repository.MenuRepository, publisher IndexPublisher) BoardService {
	return &boardService{boardRepo: boardRepo, menuRepo: menuRepo, publisher: publisher}
}

func (s *boardService) ListBoards() ([]model.Board, error) {
	return s.boardRepo.FindAll()
}

func (s *boardService) GetBoard(id uint) (*model.Board, error) {
	board, err := s.boardRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrBoardNotFound)
	}
	return board, nil
}

func (s *boardService) CreateBoard(input BoardInput) (*model.Board, error) {
	board := &model.Board{}
	if err := s.applyBoardInput(board, input); err != nil {
		return nil, err
	}
	if err := s.boardRepo.Create(board); err != nil {
		return nil, err
	}
	log.Infof("[BoardService] 版块已创建, id=%d, slug=%s", board.ID, board.Slug)
	return board, nil
}

func (s *boardService) UpdateBoard(id uint, input BoardInput) (*model.Board, error) {
	board, err := s.GetBoard(id)
	if err != nil {
		return nil, err
	}
	if err := s.applyBoardInput(board, input); err != nil {
		return nil, err
	}
	if err := s.boardRepo.Update(board); err != nil {
		return nil, err
	}
	return board, nil
}

// DeleteBoard 删除版块及其帖子，并为每个帖子投递删除索引事件。
// 仍被 BOARD 菜单引用的版块不能删除。
func (s *boardService) DeleteBoard(ctx context.Context, id uint) error {
	if _, err := s.GetBoard(id); err != nil {
		return err
	}
	refs, err := s.menuRepo.CountByTarget(model.MenuTypeBoard, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: id=%d, menus=%d", ErrBoardInUse, id, refs)
	}
	postIDs, err := s.boardRepo.FindPostIDsByBoard(id)
	if err != nil {
		return err
	}
	if err := s.boardRepo.Delete(id); err != nil {
		return err
	}
	for _, postID := range postIDs {
		publishIndex(ctx, s.publisher, events.ActionDelete, model.SearchKindPost, postID)
	}
	log.Infof("[BoardService] 版块已删除, id=%d, posts=%d", id, len(postIDs))
	return nil
}

func (s *boardService) ListPosts(boardID uint, page, size int) (*PostPage, error) {
	if _, err := s.GetBoard(boardID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	posts, total, err := s.boardRepo.FindPostsByBoard(boardID, (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return &PostPage{Content: posts, TotalElements: total, Size: size, Number: page}, nil
}

func (s *boardService) GetPost(id uint) (*model.Post, error) {
	post, err := s.boardRepo.FindPostByID(id)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	return post, nil
}

func (s *boardService) ViewPost(id uint) (*PostView, error) {
	if err := s.boardRepo.IncrementViews(id); err != nil {
		return nil, err
	}
	post, err := s.GetPost(id)
	if err != nil {
		return nil, err
	}
	html, err := markdown.Render(post.Body)
	if err != nil {
		return nil, err
	}
	return &PostView{Post: *post, HTML: html}, nil
}

func (s *boardService) CreatePost(ctx context.Context, boardID, authorID uint, input PostInput) (*model.Post, error) {
	if _, err := s.GetBoard(boardID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalidf("title is required")
	}
	post := &model.Post{
		BoardID:  boardID,
		Title:    title,
		Body:     input.Body,
		AuthorID: authorID,
	}
	if err := s.boardRepo.CreatePost(post); err != nil {
		return nil, err
	}
	publishIndex(ctx, s.publisher, events.ActionUpsert, model.SearchKindPost, post.ID)
	return post, nil
}

func (s *boardService) UpdatePost(ctx context.Context, id uint, input PostInput) (*model.Post, error) {
	post, err := s.GetPost(id)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalidf("title is required")
	}
	post.Title = title
	post.Body = input.Body
	if err := s.boardRepo.UpdatePost(post); err != nil {
		return nil, err
	}
	publishIndex(ctx, s.publisher, events.ActionUpsert, model.SearchKindPost, post.ID)
	return post, nil
}

func (s *boardService) DeletePost(ctx context.Context, id uint) error {
	if _, err := s.GetPost(id); err != nil {
		return err
	}
	if err := s.boardRepo.DeletePost(id); err != nil {
		return err
	}
	publishIndex(ctx, s.publisher, events.ActionDelete, model.SearchKindPost, id)
	return nil
}

// applyBoardInput 校验字段并检查 slug 是否已被其他版块占用。
func (s *boardService) applyBoardInput(board *model.Board, input BoardInput) error {
	name := strings.TrimSpace(input.Name)
	slug := strings.TrimSpace(input.Slug)
	if name == "" || slug == "" {
		return invalidf("name and slug are required")
	}
	existing, err := s.boardRepo.FindBySlug(slug)
	if err == nil && existing.ID != board.ID {
		return ErrSlugTaken
	}
	if err != nil && !isRecordNotFound(err) {
		return err
	}
	board.Name = name
	board.Slug = slug
	board.Description = input.Description
	return nil
}
