package model

import "time"

// Content 对应 contents 表，表示一个独立的内容页面。
type Content struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Slug      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Body      string    `gorm:"type:text" json:"body"`
	Published bool      `gorm:"not null;default:false" json:"published"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Content) TableName() string {
	return "contents"
}
