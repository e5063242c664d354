package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery(t *testing.T) {
	normalized, phrase := normalizeQuery("请问 Go 语言是什么？")
	assert.Equal(t, "go 语言", normalized)
	assert.Equal(t, "go 语言", phrase)

	normalized, phrase = normalizeQuery("!!!")
	assert.Equal(t, "!!!", normalized)
	assert.Empty(t, phrase)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "中文…", truncate("中文内容", 2))
}

func newFakeES(t *testing.T, handler func(w http.ResponseWriter, body map[string]interface{})) *elasticsearch.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		var body map[string]interface{}
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &body)
		}
		handler(w, body)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func TestSearchServiceSearch(t *testing.T) {
	var captured map[string]interface{}
	client := newFakeES(t, func(w http.ResponseWriter, body map[string]interface{}) {
		captured = body
		_, _ = io.WriteString(w, `{
			"hits": {
				"total": {"value": 2},
				"hits": [
					{"_score": 3.5, "_source": {"doc_id": "post:1", "kind": "post", "source_id": 1, "title": "Go tips", "body": "short body"},
					 "highlight": {"body": ["<em>go</em> tips"]}},
					{"_score": 1.2, "_source": {"doc_id": "content:4", "kind": "content", "source_id": 4, "title": "About", "body": "plain"}}
				]
			}
		}`)
	})
	svc := NewSearchService(client, "cms_documents")

	hits, err := svc.Search(context.Background(), "Go", 500)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "post", hits[0].Kind)
	assert.Equal(t, uint(1), hits[0].SourceID)
	assert.Equal(t, "<em>go</em> tips", hits[0].Snippet)
	assert.Equal(t, "plain", hits[1].Snippet)
	assert.Equal(t, float64(maxSearchSize), captured["size"])

	query, err := json.Marshal(captured["query"])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(query), "title^2"))
}

func TestSearchServiceRejectsEmptyQuery(t *testing.T) {
	svc := NewSearchService(nil, "cms_documents")
	_, err := svc.Search(context.Background(), "   ", 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearchServiceElasticsearchError(t *testing.T) {
	client := newFakeES(t, func(w http.ResponseWriter, body map[string]interface{}) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error": "boom"}`)
	})
	svc := NewSearchService(client, "cms_documents")
	_, err := svc.Search(context.Background(), "go", 10)
	require.Error(t, err)
}
