package service

import (
	"cms-go/internal/model"
	"cms-go/internal/repository"
	"cms-go/pkg/events"
	"cms-go/pkg/markdown"
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ContentInput 是创建或编辑内容页面时提交的字段。
type ContentInput struct {
	Title     string `json:"title" binding:"required"`
	Slug      string `json:"slug" binding:"required"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

// ContentView 是公开接口返回的内容页面，附带渲染后的 HTML。
type ContentView struct {
	model.Content
	HTML string `json:"html"`
}

// ContentService 接口定义了内容页面相关的业务操作。
type ContentService interface {
	List() ([]model.Content, error)
	Get(id uint) (*model.Content, error)
	Create(ctx context.Context, input ContentInput) (*model.Content, error)
	Update(ctx context.Context, id uint, input ContentInput) (*model.Content, error)
	Delete(ctx context.Context, id uint) error
	// GetPublished 按 ID 或 slug 查找已发布的页面，未发布的页面视为不存在。
	GetPublished(idOrSlug string) (*ContentView, error)
}

type contentService struct {
	contentRepo repository.ContentRepository
	menuRepo    repository.MenuRepository
	publisher   IndexPublisher
}

// NewContentService 创建一个新的 ContentService 实例。
func NewContentService(contentRepo repository.ContentRepository, menuRepo repository.MenuRepository, publisher IndexPublisher) ContentService {
	return &contentService{contentRepo: contentRepo, menuRepo: menuRepo, publisher: publisher}
}

func (s *contentService) List() ([]model.Content, error) {
	return s.contentRepo.FindAll()
}

func (s *contentService) Get(id uint) (*model.Content, error) {
	content, err := s.contentRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrContentNotFound)
	}
	return content, nil
}

func (s *contentService) Create(ctx context.Context, input ContentInput) (*model.Content, error) {
	content := &model.Content{}
	if err := s.apply(content, input); err != nil {
		return nil, err
	}
	if err := s.contentRepo.Create(content); err != nil {
		return nil, err
	}
	publishIndex(ctx, s.publisher, events.ActionUpsert, model.SearchKindContent, content.ID)
	return content, nil
}

func (s *contentService) Update(ctx context.Context, id uint, input ContentInput) (*model.Content, error) {
	content, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(content, input); err != nil {
		return nil, err
	}
	if err := s.contentRepo.Update(content); err != nil {
		return nil, err
	}
	publishIndex(ctx, s.publisher, events.ActionUpsert, model.SearchKindContent, content.ID)
	return content, nil
}

// Delete 删除内容页面，仍被 CONTENT 菜单引用时拒绝。
func (s *contentService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	refs, err := s.menuRepo.CountByTarget(model.MenuTypeContent, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: id=%d, menus=%d", ErrContentInUse, id, refs)
	}
	if err := s.contentRepo.Delete(id); err != nil {
		return err
	}
	publishIndex(ctx, s.publisher, events.ActionDelete, model.SearchKindContent, id)
	return nil
}

func (s *contentService) GetPublished(idOrSlug string) (*ContentView, error) {
	var (
		content *model.Content
		err     error
	)
	if id, convErr := strconv.ParseUint(idOrSlug, 10, 64); convErr == nil {
		content, err = s.contentRepo.FindByID(uint(id))
	} else {
		content, err = s.contentRepo.FindBySlug(idOrSlug)
	}
	if err != nil {
		return nil, notFound(err, ErrContentNotFound)
	}
	if !content.Published {
		return nil, ErrContentNotFound
	}

	html, err := markdown.Render(content.Body)
	if err != nil {
		return nil, err
	}
	return &ContentView{Content: *content, HTML: html}, nil
}

func (s *contentService) apply(content *model.Content, input ContentInput) error {
	title := strings.TrimSpace(input.Title)
	slug := strings.TrimSpace(input.Slug)
	if title == "" || slug == "" {
		return invalidf("title and slug are required")
	}
	if _, err := strconv.ParseUint(slug, 10, 64); err == nil {
		return invalidf("slug %q must not be purely numeric", slug)
	}
	existing, err := s.contentRepo.FindBySlug(slug)
	if err == nil && existing.ID != content.ID {
		return ErrSlugTaken
	}
	if err != nil && !isRecordNotFound(err) {
		return err
	}
	content.Title = title
	content.Slug = slug
	content.Body = input.Body
	content.Published = input.Published
	return nil
}
