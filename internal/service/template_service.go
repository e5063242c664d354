package service

import (
	"cms-go/internal/model"
	"cms-go/internal/repository"
	"cms-go/pkg/log"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TemplateInput 是创建模板时提交的数据，Layout 可以为空。
type TemplateInput struct {
	Name   string             `json:"name" binding:"required"`
	Type   model.TemplateType `json:"type" binding:"required"`
	Layout model.Layout       `json:"layout"`
}

// TemplateUpdateInput 是编辑模板时提交的数据。Name 为 nil 时保持不变。
type TemplateUpdateInput struct {
	Name   *string      `json:"name"`
	Layout model.Layout `json:"layout"`
}

// TemplateService 管理模板及其只追加的版本历史。
// 每次修改布局都会在同一个事务中追加一个新版本并覆盖当前布局。
type TemplateService interface {
	List() ([]model.Template, error)
	Get(id uint) (*model.Template, error)
	Create(input TemplateInput, creatorID uint) (*model.Template, error)
	Update(id uint, input TemplateUpdateInput, updaterID uint) (*model.Template, error)
	Delete(id uint) error
	ListVersions(id uint) ([]model.TemplateVersion, error)
	GetVersion(id uint, version int) (*model.TemplateVersion, error)
	// Rollback 把历史快照复制为一个新版本，原有历史保持不变。
	Rollback(id uint, version int, updaterID uint) (*model.Template, error)
	// TogglePublish 只修改发布状态，不产生新版本。
	TogglePublish(id uint, published bool) (*model.Template, error)
}

type templateService struct {
	templateRepo repository.TemplateRepository
}

// NewTemplateService 创建一个新的 TemplateService 实例。
func NewTemplateService(templateRepo repository.TemplateRepository) TemplateService {
	return &templateService{templateRepo: templateRepo}
}

func (s *templateService) List() ([]model.Template, error) {
	return s.templateRepo.FindAll()
}

func (s *templateService) Get(id uint) (*model.Template, error) {
	tpl, err := s.templateRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrTemplateNotFound)
	}
	return tpl, nil
}

func (s *templateService) Create(input TemplateInput, creatorID uint) (*model.Template, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	if input.Type != model.TemplateTypePage && input.Type != model.TemplateTypeComponent {
		return nil, invalidf("unknown template type %q", input.Type)
	}
	layout, err := normalizeLayout(input.Layout)
	if err != nil {
		return nil, err
	}

	tpl := &model.Template{
		Name:           name,
		Type:           input.Type,
		Layout:         layout,
		CurrentVersion: 1,
	}
	err = s.templateRepo.Transaction(func(repo repository.TemplateRepository) error {
		if err := repo.Create(tpl); err != nil {
			return err
		}
		return repo.CreateVersion(&model.TemplateVersion{
			TemplateID: tpl.ID,
			Version:    1,
			Layout:     layout,
			ChangeType: model.ChangeTypeCreate,
			UpdatedBy:  creatorID,
		})
	})
	if err != nil {
		return nil, err
	}
	log.Infof("[TemplateService] 模板已创建, id=%d, name=%s", tpl.ID, tpl.Name)
	return tpl, nil
}

func (s *templateService) Update(id uint, input TemplateUpdateInput, updaterID uint) (*model.Template, error) {
	if input.Layout == nil {
		return nil, invalidf("layout is required")
	}
	layout, err := normalizeLayout(input.Layout)
	if err != nil {
		return nil, err
	}
	var name string
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, invalidf("name cannot be empty")
		}
	}

	return s.appendVersion(id, updaterID, func(_ repository.TemplateRepository, tpl *model.Template) (*model.TemplateVersion, error) {
		if name != "" {
			tpl.Name = name
		}
		return &model.TemplateVersion{Layout: layout, ChangeType: model.ChangeTypeUpdate}, nil
	})
}

func (s *templateService) Rollback(id uint, version int, updaterID uint) (*model.Template, error) {
	tpl, err := s.appendVersion(id, updaterID, func(repo repository.TemplateRepository, _ *model.Template) (*model.TemplateVersion, error) {
		source, err := repo.FindVersion(id, version)
		if err != nil {
			return nil, notFound(err, ErrVersionNotFound)
		}
		from := version
		return &model.TemplateVersion{
			Layout:         source.Layout,
			ChangeType:     model.ChangeTypeRollback,
			RolledBackFrom: &from,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	log.Infof("[TemplateService] 模板已回滚, id=%d, from=%d, newVersion=%d", id, version, tpl.CurrentVersion)
	return tpl, nil
}

// appendVersion 在一个事务内读取模板、追加版本号为 max+1 的快照并更新模板头部。
func (s *templateService) appendVersion(id, updaterID uint, build func(repo repository.TemplateRepository, tpl *model.Template) (*model.TemplateVersion, error)) (*model.Template, error) {
	var result *model.Template
	err := s.templateRepo.Transaction(func(repo repository.TemplateRepository) error {
		tpl, err := repo.FindByID(id)
		if err != nil {
			return notFound(err, ErrTemplateNotFound)
		}
		next, err := build(repo, tpl)
		if err != nil {
			return err
		}

		latest, err := repo.MaxVersion(id)
		if err != nil {
			return err
		}
		next.TemplateID = id
		next.Version = latest + 1
		next.UpdatedBy = updaterID
		if next.Layout == nil {
			next.Layout = model.Layout{}
		}
		if err := repo.CreateVersion(next); err != nil {
			// 并发写入抢到了同一个版本号
			if isDuplicateKey(err) {
				return fmt.Errorf("%w: id=%d, version=%d", ErrVersionConflict, id, next.Version)
			}
			return err
		}

		tpl.Layout = next.Layout
		tpl.CurrentVersion = next.Version
		if err := repo.Update(tpl); err != nil {
			return err
		}
		result = tpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *templateService) Delete(id uint) error {
	err := s.templateRepo.Transaction(func(repo repository.TemplateRepository) error {
		if _, err := repo.FindByID(id); err != nil {
			return notFound(err, ErrTemplateNotFound)
		}
		return repo.Delete(id)
	})
	if err != nil {
		return err
	}
	log.Infof("[TemplateService] 模板已删除, id=%d", id)
	return nil
}

func (s *templateService) ListVersions(id uint) ([]model.TemplateVersion, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	versions, err := s.templateRepo.FindVersions(id)
	if err != nil {
		return nil, err
	}
	if versions == nil {
		versions = []model.TemplateVersion{}
	}
	return versions, nil
}

func (s *templateService) GetVersion(id uint, version int) (*model.TemplateVersion, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	v, err := s.templateRepo.FindVersion(id, version)
	if err != nil {
		return nil, notFound(err, ErrVersionNotFound)
	}
	return v, nil
}

func (s *templateService) TogglePublish(id uint, published bool) (*model.Template, error) {
	tpl, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.templateRepo.UpdatePublished(id, published); err != nil {
		return nil, err
	}
	tpl.Published = published
	return tpl, nil
}

// normalizeLayout 校验网格坐标并为缺少 id 的块生成 UUID。返回的是新切片，不修改入参。
func normalizeLayout(layout model.Layout) (model.Layout, error) {
	normalized := make(model.Layout, 0, len(layout))
	seen := make(map[string]struct{}, len(layout))
	for i, block := range layout {
		if block.ID == "" {
			block.ID = uuid.NewString()
		}
		if _, dup := seen[block.ID]; dup {
			return nil, invalidf("duplicate block id %q", block.ID)
		}
		seen[block.ID] = struct{}{}

		if block.X < 0 || block.Y < 0 || block.W < 1 || block.H < 1 {
			return nil, invalidf("block #%d (%s) has invalid geometry x=%d y=%d w=%d h=%d", i+1, block.ID, block.X, block.Y, block.W, block.H)
		}
		if block.X+block.W > model.GridColumns {
			return nil, invalidf("block #%d (%s) exceeds %d grid columns", i+1, block.ID, model.GridColumns)
		}
		normalized = append(normalized, block)
	}
	return normalized, nil
}
