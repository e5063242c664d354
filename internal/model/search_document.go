package model

import "time"

// 可检索的内容种类
const (
	SearchKindPost    = "post"
	SearchKindContent = "content"
)

// SearchDocument 是写入 Elasticsearch 的文档结构。
type SearchDocument struct {
	DocID     string    `json:"doc_id"` // kind + ":" + id
	Kind      string    `json:"kind"`
	SourceID  uint      `json:"source_id"`
	BoardID   uint      `json:"board_id,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Slug      string    `json:"slug,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchHit 是返回给前端的搜索结果。
type SearchHit struct {
	Kind     string  `json:"kind"`
	SourceID uint    `json:"sourceId"`
	Title    string  `json:"title"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
}
