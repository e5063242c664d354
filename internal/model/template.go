package model

import (
	"time"

	"gorm.io/datatypes"
)

// TemplateType 区分整页模板和可复用组件。
type TemplateType string

const (
	TemplateTypePage      TemplateType = "PAGE"
	TemplateTypeComponent TemplateType = "COMPONENT"
)

// GridColumns 是模板网格的固定列数。
const GridColumns = 12

// 版本变更类型
const (
	ChangeTypeCreate   = "create"
	ChangeTypeUpdate   = "update"
	ChangeTypeRollback = "rollback"
)

// Widget 描述块中放置的内容组件。
type Widget struct {
	Type      string            `json:"type"`
	ContentID *uint             `json:"contentId,omitempty"`
	Props     map[string]string `json:"props,omitempty"`
}

// TemplateBlock 是网格上的一个块，块之间允许重叠。
type TemplateBlock struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	W      int    `json:"w"`
	H      int    `json:"h"`
	Widget Widget `json:"widget"`
}

// Layout 是有序的块列表，以 JSON 列持久化。
type Layout = datatypes.JSONSlice[TemplateBlock]

// Template 是模板的可变头部，Layout 始终等于最新版本的快照。
type Template struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"type:varchar(100);not null" json:"name"`
	Type           TemplateType `gorm:"type:varchar(20);not null" json:"type"`
	Published      bool         `gorm:"not null;default:false" json:"published"`
	Layout         Layout       `json:"layout"`
	CurrentVersion int          `gorm:"not null;default:0" json:"currentVersion"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Template) TableName() string {
	return "templates"
}

// TemplateVersion 是不可变的历史快照，只追加不修改。
type TemplateVersion struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TemplateID     uint      `gorm:"not null;uniqueIndex:idx_template_version" json:"templateId"`
	Version        int       `gorm:"not null;uniqueIndex:idx_template_version" json:"version"`
	Layout         Layout    `json:"layout"`
	ChangeType     string    `gorm:"type:varchar(20);not null" json:"changeType"`
	RolledBackFrom *int      `json:"rolledBackFrom,omitempty"`
	UpdatedBy      uint      `json:"updatedBy"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (TemplateVersion) TableName() string {
	return "template_versions"
}
