package model

import "time"

// MenuType 表示菜单节点的类型。
type MenuType string

const (
	MenuTypeLink    MenuType = "LINK"
	MenuTypeFolder  MenuType = "FOLDER"
	MenuTypeBoard   MenuType = "BOARD"
	MenuTypeContent MenuType = "CONTENT"
)

// Valid 判断类型是否为已知的四种之一。
func (t MenuType) Valid() bool {
	switch t {
	case MenuTypeLink, MenuTypeFolder, MenuTypeBoard, MenuTypeContent:
		return true
	}
	return false
}

// Menu 对应数据库中的 menus 表，一行即导航树中的一个节点。
// 父子关系只通过 ParentID 存储，Children 在读取时由扁平记录重建。
type Menu struct {
	ID   uint     `gorm:"primaryKey" json:"id"`
	Name string   `gorm:"type:varchar(100);not null" json:"name"`
	Type MenuType `gorm:"type:varchar(20);not null" json:"type"`
	// URL 仅对 LINK 类型有意义
	URL *string `gorm:"type:varchar(512)" json:"url,omitempty"`
	// TargetID 指向 Board 或 Content，仅对 BOARD/CONTENT 类型有意义
	TargetID        *uint     `json:"targetId,omitempty"`
	DisplayPosition string    `gorm:"type:varchar(50);index" json:"displayPosition"`
	Visible         bool      `gorm:"not null" json:"visible"`
	SortOrder       int       `gorm:"not null;default:0" json:"sortOrder"`
	ParentID        *uint     `gorm:"index" json:"parentId"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Children []*Menu `gorm:"-" json:"children,omitempty"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Menu) TableName() string {
	return "menus"
}
