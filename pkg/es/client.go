// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"cms-go/internal/config"
	"cms-go/internal/model"
	"cms-go/pkg/log"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// indexMapping 是帖子和内容页面共用的索引结构，title/body 使用 ik 中文分词器。
const indexMapping = `{
	"mappings": {
		"properties": {
			"doc_id":     { "type": "keyword" },
			"kind":       { "type": "keyword" },
			"source_id":  { "type": "long" },
			"board_id":   { "type": "long" },
			"title": {
				"type": "text",
				"analyzer": "ik_max_word",
				"search_analyzer": "ik_smart"
			},
			"body": {
				"type": "text",
				"analyzer": "ik_max_word",
				"search_analyzer": "ik_smart"
			},
			"slug":       { "type": "keyword" },
			"updated_at": { "type": "date" }
		}
	}
}`

// InitES 初始化 Elasticsearch 客户端
func InitES(esCfg config.ElasticsearchConfig) error {
	client, err := NewClient(esCfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(client, esCfg.IndexName)
}

// NewClient 根据配置创建客户端，多个地址用逗号分隔。
func NewClient(esCfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	return elasticsearch.NewClient(cfg)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(client *elasticsearch.Client, indexName string) error {
	res, err := client.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	defer res.Body.Close()
	// 如果 res.StatusCode 是 200，说明索引已存在
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	// 如果 res.StatusCode 是 404，说明索引不存在，需要创建
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	created, err := client.Indices.Create(
		indexName,
		client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer created.Body.Close()
	if created.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, created.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// DocumentIndex 把索引名和客户端绑定在一起，供索引消费者使用。
type DocumentIndex struct {
	client    *elasticsearch.Client
	indexName string
}

// NewDocumentIndex 创建一个新的 DocumentIndex。
func NewDocumentIndex(client *elasticsearch.Client, indexName string) *DocumentIndex {
	return &DocumentIndex{client: client, indexName: indexName}
}

// Index 写入或覆盖一个文档，文档 ID 为 doc.DocID。
func (i *DocumentIndex) Index(ctx context.Context, doc model.SearchDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      i.indexName,
		DocumentID: doc.DocID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return fmt.Errorf("failed to index document %s", doc.DocID)
	}
	return nil
}

// Delete 删除一个文档，文档本就不存在时视为成功。
func (i *DocumentIndex) Delete(ctx context.Context, docID string) error {
	req := esapi.DeleteRequest{
		Index:      i.indexName,
		DocumentID: docID,
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		log.Errorf("从 Elasticsearch 删除文档出错: %s", res.String())
		return fmt.Errorf("failed to delete document %s", docID)
	}
	return nil
}

// DocID 生成文档 ID，帖子和内容页面共用一个索引，用 kind 前缀区分。
func DocID(kind string, id uint) string {
	return fmt.Sprintf("%s:%d", kind, id)
}
