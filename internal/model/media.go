package model

import "time"

// Media 记录上传到对象存储中的媒体文件。
type Media struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ObjectName  string    `gorm:"type:varchar(512);uniqueIndex;not null" json:"objectName"`
	FileName    string    `gorm:"type:varchar(255);not null" json:"fileName"`
	ContentType string    `gorm:"type:varchar(100)" json:"contentType"`
	Size        int64     `gorm:"not null" json:"size"`
	UploadedBy  uint      `gorm:"index" json:"uploadedBy"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Media) TableName() string {
	return "media"
}
