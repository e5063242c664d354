package service

import (
	"bytes"
	"cms-go/internal/model"
	"cms-go/pkg/log"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
	snippetLength     = 160
)

// SearchService 接口定义了搜索操作。
type SearchService interface {
	Search(ctx context.Context, query string, size int) ([]model.SearchHit, error)
}

type searchService struct {
	esClient  *elasticsearch.Client
	indexName string
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(esClient *elasticsearch.Client, indexName string) SearchService {
	return &searchService{esClient: esClient, indexName: indexName}
}

// Search 在帖子和内容页面中做全文检索，title 权重高于 body。
func (s *searchService) Search(ctx context.Context, query string, size int) ([]model.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalidf("query is required")
	}
	if size < 1 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}

	normalized, phrase := normalizeQuery(query)
	if normalized != query {
		log.Infof("[SearchService] 规范化查询: '%s' -> '%s'", query, normalized)
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  normalized,
						"fields": []string{"title^2", "body"},
					},
				},
				// 额外的 should：对核心短语做 match_phrase 以提升精确命中
				"should": buildPhraseShould(phrase),
			},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"body": map[string]interface{}{
					"fragment_size":       snippetLength,
					"number_of_fragments": 1,
				},
			},
		},
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(s.indexName),
		s.esClient.Search.WithBody(&buf),
		s.esClient.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		log.Errorf("[SearchService] 向 Elasticsearch 发送搜索请求失败: %v", err)
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[SearchService] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source    model.SearchDocument `json:"_source"`
				Score     float64              `json:"_score"`
				Highlight map[string][]string  `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]model.SearchHit, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		snippet := truncate(hit.Source.Body, snippetLength)
		if fragments := hit.Highlight["body"]; len(fragments) > 0 {
			snippet = fragments[0]
		}
		results = append(results, model.SearchHit{
			Kind:     hit.Source.Kind,
			SourceID: hit.Source.SourceID,
			Title:    hit.Source.Title,
			Snippet:  snippet,
			Score:    hit.Score,
		})
	}
	log.Infof("[SearchService] 搜索完成, query: '%s', hits: %d", query, len(results))
	return results, nil
}

var (
	reKeep  = regexp.MustCompile(`[^\p{Han}a-z0-9\s]+`)
	reSpace = regexp.MustCompile(`\s+`)
)

// normalizeQuery 对用户查询进行轻量去噪与短语提取。
// 返回值：规范化后的查询与核心短语（用于 match_phrase）。
func normalizeQuery(q string) (string, string) {
	if q == "" {
		return q, ""
	}
	lower := strings.ToLower(q)
	// 去除常见口语/功能词
	stopPhrases := []string{"是谁", "是什么", "是啥", "请问", "怎么", "如何", "告诉我", "吗", "呢", "？", "?"}
	for _, sp := range stopPhrases {
		lower = strings.ReplaceAll(lower, sp, " ")
	}
	// 仅保留中文、英文、数字与空白
	kept := reKeep.ReplaceAllString(lower, " ")
	kept = strings.TrimSpace(reSpace.ReplaceAllString(kept, " "))
	if kept == "" {
		return q, ""
	}
	return kept, kept
}

// buildPhraseShould 构建 match_phrase should 子句（带 boost），为空则返回 nil
func buildPhraseShould(phrase string) interface{} {
	if phrase == "" {
		return nil
	}
	return []map[string]interface{}{
		{
			"match_phrase": map[string]interface{}{
				"title": map[string]interface{}{
					"query": phrase,
					"boost": 3.0,
				},
			},
		},
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
