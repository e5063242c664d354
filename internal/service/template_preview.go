package service

import (
	"cms-go/internal/model"
	"cms-go/internal/repository"
	"cms-go/pkg/markdown"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// 预览时能够解析的组件类型
const (
	WidgetContent  = "content"
	WidgetBoard    = "board"
	WidgetMenu     = "menu"
	WidgetMarkdown = "markdown"
)

// boardPreviewPosts 是 board 组件在预览中展示的最新帖子数量。
const boardPreviewPosts = 5

// previewConcurrency 限制单次预览同时发起的查询数。
const previewConcurrency = 8

// PreviewBlock 是解析后的块。绑定的内容不存在时 Missing 为 true，而不是整体报错。
type PreviewBlock struct {
	model.TemplateBlock
	Missing bool          `json:"missing,omitempty"`
	Title   string        `json:"title,omitempty"`
	HTML    string        `json:"html,omitempty"`
	Posts   []model.Post  `json:"posts,omitempty"`
	Menu    []*model.Menu `json:"menu,omitempty"`
}

// TemplatePreview 是模板某个版本渲染后的结果。
type TemplatePreview struct {
	TemplateID uint               `json:"templateId"`
	Name       string             `json:"name"`
	Type       model.TemplateType `json:"type"`
	Version    int                `json:"version"`
	Published  bool               `json:"published"`
	Blocks     []PreviewBlock     `json:"blocks"`
}

// PreviewService 负责把模板布局和实际内容组合起来。
type PreviewService interface {
	// Preview 渲染指定版本，version 为 nil 时使用当前布局。
	Preview(ctx context.Context, id uint, version *int) (*TemplatePreview, error)
	// Published 只渲染已发布模板的当前布局，未发布视为不存在。
	Published(ctx context.Context, id uint) (*TemplatePreview, error)
}

type previewService struct {
	templates   TemplateService
	contentRepo repository.ContentRepository
	boardRepo   repository.BoardRepository
	menus       MenuService
}

// NewPreviewService 创建一个新的 PreviewService 实例。
func NewPreviewService(templates TemplateService, contentRepo repository.ContentRepository, boardRepo repository.BoardRepository, menus MenuService) PreviewService {
	return &previewService{
		templates:   templates,
		contentRepo: contentRepo,
		boardRepo:   boardRepo,
		menus:       menus,
	}
}

func (s *previewService) Preview(ctx context.Context, id uint, version *int) (*TemplatePreview, error) {
	tpl, err := s.templates.Get(id)
	if err != nil {
		return nil, err
	}
	layout := tpl.Layout
	current := tpl.CurrentVersion
	if version != nil {
		v, err := s.templates.GetVersion(id, *version)
		if err != nil {
			return nil, err
		}
		layout = v.Layout
		current = v.Version
	}
	return s.render(ctx, tpl, layout, current)
}

func (s *previewService) Published(ctx context.Context, id uint) (*TemplatePreview, error) {
	tpl, err := s.templates.Get(id)
	if err != nil {
		return nil, err
	}
	if !tpl.Published {
		return nil, ErrTemplateNotFound
	}
	return s.render(ctx, tpl, tpl.Layout, tpl.CurrentVersion)
}

func (s *previewService) render(ctx context.Context, tpl *model.Template, layout model.Layout, version int) (*TemplatePreview, error) {
	blocks := make([]PreviewBlock, len(layout))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(previewConcurrency)
	for i := range layout {
		i := i
		g.Go(func() error {
			block, err := s.resolve(gctx, layout[i])
			if err != nil {
				return fmt.Errorf("block %s: %w", layout[i].ID, err)
			}
			blocks[i] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &TemplatePreview{
		TemplateID: tpl.ID,
		Name:       tpl.Name,
		Type:       tpl.Type,
		Version:    version,
		Published:  tpl.Published,
		Blocks:     blocks,
	}, nil
}

// resolve 加载块绑定的内容。只有数据库错误等非预期错误会中断整个预览。
func (s *previewService) resolve(ctx context.Context, block model.TemplateBlock) (PreviewBlock, error) {
	out := PreviewBlock{TemplateBlock: block}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	switch block.Widget.Type {
	case WidgetContent:
		if block.Widget.ContentID == nil {
			out.Missing = true
			return out, nil
		}
		content, err := s.contentRepo.FindByID(*block.Widget.ContentID)
		if err != nil {
			if isRecordNotFound(err) {
				out.Missing = true
				return out, nil
			}
			return out, err
		}
		html, err := markdown.Render(content.Body)
		if err != nil {
			return out, err
		}
		out.Title = content.Title
		out.HTML = html

	case WidgetBoard:
		if block.Widget.ContentID == nil {
			out.Missing = true
			return out, nil
		}
		board, err := s.boardRepo.FindByID(*block.Widget.ContentID)
		if err != nil {
			if isRecordNotFound(err) {
				out.Missing = true
				return out, nil
			}
			return out, err
		}
		posts, _, err := s.boardRepo.FindPostsByBoard(board.ID, 0, boardPreviewPosts)
		if err != nil {
			return out, err
		}
		out.Title = board.Name
		out.Posts = posts

	case WidgetMenu:
		tree, err := s.menus.Tree(ctx)
		if err != nil {
			return out, err
		}
		out.Menu = tree

	case WidgetMarkdown:
		html, err := markdown.Render(block.Widget.Props["markdown"])
		if err != nil {
			return out, err
		}
		out.HTML = html
	}
	return out, nil
}
