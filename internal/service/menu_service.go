package service

import (
	"cms-go/internal/model"
	"cms-go/internal/repository"
	"cms-go/pkg/log"
	"context"
	"fmt"
	"strings"
)

// MenuInput 是创建或编辑菜单时提交的字段。
// ParentID 只在创建时生效，已有节点的层级和顺序只能通过 Reorder 调整。
type MenuInput struct {
	Name            string         `json:"name" binding:"required"`
	Type            model.MenuType `json:"type" binding:"required"`
	URL             *string        `json:"url"`
	TargetID        *uint          `json:"targetId"`
	DisplayPosition string         `json:"displayPosition"`
	Visible         *bool          `json:"visible"`
	ParentID        *uint          `json:"parentId"`
}

// MenuService 接口定义了菜单相关的业务操作。
type MenuService interface {
	// Tree 返回公开可见的菜单树，优先读取缓存。
	Tree(ctx context.Context) ([]*model.Menu, error)
	AdminTree(ctx context.Context) ([]*model.Menu, error)
	// List 返回扁平的全部菜单记录。
	List() ([]model.Menu, error)
	Get(id uint) (*model.Menu, error)
	Create(ctx context.Context, input MenuInput) (*model.Menu, error)
	Update(ctx context.Context, id uint, input MenuInput) (*model.Menu, error)
	Delete(ctx context.Context, id uint) error
	Reorder(ctx context.Context, moves []MenuMove) error
}

type menuService struct {
	menuRepo    repository.MenuRepository
	boardRepo   repository.BoardRepository
	contentRepo repository.ContentRepository
	cache       repository.MenuCache
}

// NewMenuService 创建一个新的 MenuService 实例。cache 为 nil 时不做缓存。
func NewMenuService(menuRepo repository.MenuRepository, boardRepo repository.BoardRepository, contentRepo repository.ContentRepository, cache repository.MenuCache) MenuService {
	return &menuService{
		menuRepo:    menuRepo,
		boardRepo:   boardRepo,
		contentRepo: contentRepo,
		cache:       cache,
	}
}

func (s *menuService) Tree(ctx context.Context) ([]*model.Menu, error) {
	var gen int64
	if s.cache != nil {
		tree, cachedGen, ok, err := s.cache.Get(ctx)
		gen = cachedGen
		if err != nil {
			log.Warnf("[MenuService] 读取菜单缓存失败，回退到数据库: %v", err)
		} else if ok {
			return tree, nil
		}
	}

	menus, err := s.menuRepo.FindVisible()
	if err != nil {
		return nil, err
	}
	tree, err := BuildMenuTree(menus)
	if err != nil {
		return nil, err
	}

	// 用读取前的代号回填，期间若有写操作，这次回填会落在旧代上
	if s.cache != nil {
		if err := s.cache.Set(ctx, gen, tree); err != nil {
			log.Warnf("[MenuService] 写入菜单缓存失败: %v", err)
		}
	}
	return tree, nil
}

func (s *menuService) AdminTree(ctx context.Context) ([]*model.Menu, error) {
	menus, err := s.menuRepo.FindAll()
	if err != nil {
		return nil, err
	}
	return BuildMenuTree(menus)
}

func (s *menuService) List() ([]model.Menu, error) {
	return s.menuRepo.FindAll()
}

func (s *menuService) Get(id uint) (*model.Menu, error) {
	menu, err := s.menuRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrMenuNotFound)
	}
	return menu, nil
}

// Create 创建菜单节点，sort_order 追加在兄弟组末尾。
func (s *menuService) Create(ctx context.Context, input MenuInput) (*model.Menu, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	menu := &model.Menu{
		Name:            strings.TrimSpace(input.Name),
		Type:            input.Type,
		DisplayPosition: input.DisplayPosition,
		Visible:         input.Visible == nil || *input.Visible,
		ParentID:        input.ParentID,
	}
	applyMenuTarget(menu, input)

	err := s.menuRepo.Transaction(func(repo repository.MenuRepository) error {
		if input.ParentID != nil {
			if _, err := repo.FindByID(*input.ParentID); err != nil {
				if isRecordNotFound(err) {
					return invalidf("parent menu %d does not exist", *input.ParentID)
				}
				return err
			}
		}
		last, err := repo.MaxSortOrder(input.ParentID)
		if err != nil {
			return err
		}
		menu.SortOrder = last + 1
		return repo.Create(menu)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	log.Infof("[MenuService] 菜单已创建, id=%d, name=%s", menu.ID, menu.Name)
	return menu, nil
}

// Update 修改节点字段，不改变其父节点和顺序。
func (s *menuService) Update(ctx context.Context, id uint, input MenuInput) (*model.Menu, error) {
	menu, err := s.menuRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrMenuNotFound)
	}
	if err := s.validate(input); err != nil {
		return nil, err
	}

	menu.Name = strings.TrimSpace(input.Name)
	menu.Type = input.Type
	menu.DisplayPosition = input.DisplayPosition
	if input.Visible != nil {
		menu.Visible = *input.Visible
	}
	applyMenuTarget(menu, input)

	if err := s.menuRepo.Update(menu); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return menu, nil
}

// Delete 只允许删除叶子节点，删除后同组兄弟节点重新编号。
func (s *menuService) Delete(ctx context.Context, id uint) error {
	err := s.menuRepo.Transaction(func(repo repository.MenuRepository) error {
		menu, err := repo.FindByID(id)
		if err != nil {
			return notFound(err, ErrMenuNotFound)
		}
		children, err := repo.CountChildren(id)
		if err != nil {
			return err
		}
		if children > 0 {
			return fmt.Errorf("%w: id=%d has %d children", ErrMenuHasChildren, id, children)
		}
		if err := repo.Delete(id); err != nil {
			return err
		}

		siblings, err := repo.FindSiblings(menu.ParentID)
		if err != nil {
			return err
		}
		for i, sibling := range siblings {
			if sibling.SortOrder == i+1 {
				continue
			}
			if err := repo.UpdatePosition(sibling.ID, sibling.ParentID, i+1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	log.Infof("[MenuService] 菜单已删除, id=%d", id)
	return nil
}

// Reorder 在一个事务内读取全部菜单、计算新位置并写回。
// 任意一步失败都会回滚，不会留下部分写入。
func (s *menuService) Reorder(ctx context.Context, moves []MenuMove) error {
	var changed int
	err := s.menuRepo.Transaction(func(repo repository.MenuRepository) error {
		menus, err := repo.FindAll()
		if err != nil {
			return err
		}
		placements, err := ApplyMenuMoves(menus, moves)
		if err != nil {
			return err
		}
		for _, p := range placements {
			if err := repo.UpdatePosition(p.ID, p.ParentID, p.SortOrder); err != nil {
				return fmt.Errorf("failed to persist menu %d: %w", p.ID, err)
			}
		}
		changed = len(placements)
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	log.Infow("menu reorder committed", "moves", len(moves), "changedRows", changed)
	return nil
}

func (s *menuService) validate(input MenuInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return invalidf("name is required")
	}
	if !input.Type.Valid() {
		return invalidf("unknown menu type %q", input.Type)
	}

	switch input.Type {
	case model.MenuTypeLink:
		if input.URL == nil || strings.TrimSpace(*input.URL) == "" {
			return invalidf("LINK menu requires url")
		}
	case model.MenuTypeBoard:
		if input.TargetID == nil {
			return invalidf("BOARD menu requires targetId")
		}
		if _, err := s.boardRepo.FindByID(*input.TargetID); err != nil {
			if isRecordNotFound(err) {
				return invalidf("board %d does not exist", *input.TargetID)
			}
			return err
		}
	case model.MenuTypeContent:
		if input.TargetID == nil {
			return invalidf("CONTENT menu requires targetId")
		}
		if _, err := s.contentRepo.FindByID(*input.TargetID); err != nil {
			if isRecordNotFound(err) {
				return invalidf("content %d does not exist", *input.TargetID)
			}
			return err
		}
	}
	return nil
}

// applyMenuTarget 只保留与类型相关的 url/targetId。
func applyMenuTarget(menu *model.Menu, input MenuInput) {
	menu.URL = nil
	menu.TargetID = nil
	switch input.Type {
	case model.MenuTypeLink:
		url := strings.TrimSpace(*input.URL)
		menu.URL = &url
	case model.MenuTypeBoard, model.MenuTypeContent:
		target := *input.TargetID
		menu.TargetID = &target
	}
}

func (s *menuService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warnf("[MenuService] 清除菜单缓存失败: %v", err)
	}
}
