// Package pipeline 定义了把帖子和内容页面同步到搜索引擎的流程。
package pipeline

import (
	"cms-go/internal/model"
	"cms-go/internal/repository"
	"cms-go/pkg/es"
	"cms-go/pkg/events"
	"cms-go/pkg/log"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// SearchIndex 是搜索引擎中的文档集合。
type SearchIndex interface {
	Index(ctx context.Context, doc model.SearchDocument) error
	Delete(ctx context.Context, docID string) error
}

// Indexer 消费索引事件。事件只携带 kind 和 id，处理时总是重新读取数据库中的最新记录，
// 所以重复或乱序投递的 upsert 事件最终都会收敛到数据库的状态。
type Indexer struct {
	boardRepo   repository.BoardRepository
	contentRepo repository.ContentRepository
	index       SearchIndex
}

// NewIndexer 创建一个新的 Indexer 实例。
func NewIndexer(boardRepo repository.BoardRepository, contentRepo repository.ContentRepository, index SearchIndex) *Indexer {
	return &Indexer{
		boardRepo:   boardRepo,
		contentRepo: contentRepo,
		index:       index,
	}
}

// Process 处理一个索引事件。
func (p *Indexer) Process(ctx context.Context, event events.IndexEvent) error {
	if event.Kind != model.SearchKindPost && event.Kind != model.SearchKindContent {
		log.Warnf("[Indexer] 忽略未知的事件类型: %q", event.Kind)
		return nil
	}
	docID := es.DocID(event.Kind, event.ID)

	switch event.Action {
	case events.ActionDelete:
		log.Infof("[Indexer] 删除索引文档: %s", docID)
		return p.index.Delete(ctx, docID)
	case events.ActionUpsert:
	default:
		log.Warnf("[Indexer] 忽略未知的事件动作: %q", event.Action)
		return nil
	}

	doc, err := p.load(event)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 记录在事件投递之后已被删除
		log.Infof("[Indexer] 记录已不存在，删除索引文档: %s", docID)
		return p.index.Delete(ctx, docID)
	}
	if err != nil {
		return err
	}
	if doc == nil {
		return p.index.Delete(ctx, docID)
	}

	log.Infof("[Indexer] 写入索引文档: %s", docID)
	return p.index.Index(ctx, *doc)
}

// load 读取事件对应的记录，未发布的内容页面返回 nil，表示应从索引中移除。
func (p *Indexer) load(event events.IndexEvent) (*model.SearchDocument, error) {
	docID := es.DocID(event.Kind, event.ID)

	switch event.Kind {
	case model.SearchKindPost:
		post, err := p.boardRepo.FindPostByID(event.ID)
		if err != nil {
			return nil, err
		}
		return &model.SearchDocument{
			DocID:     docID,
			Kind:      model.SearchKindPost,
			SourceID:  post.ID,
			BoardID:   post.BoardID,
			Title:     post.Title,
			Body:      post.Body,
			UpdatedAt: post.UpdatedAt,
		}, nil

	case model.SearchKindContent:
		content, err := p.contentRepo.FindByID(event.ID)
		if err != nil {
			return nil, err
		}
		if !content.Published {
			return nil, nil
		}
		return &model.SearchDocument{
			DocID:     docID,
			Kind:      model.SearchKindContent,
			SourceID:  content.ID,
			Title:     content.Title,
			Body:      content.Body,
			Slug:      content.Slug,
			UpdatedAt: content.UpdatedAt,
		}, nil
	}
	return nil, fmt.Errorf("unknown index kind %q", event.Kind)
}
