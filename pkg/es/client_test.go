package es

import (
	"cms-go/internal/model"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

func newTestIndex(t *testing.T, status int) (*DocumentIndex, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{method: r.Method, path: r.URL.Path, body: string(body)})
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{}`)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return NewDocumentIndex(client, "cms_content"), &requests
}

func TestDocID(t *testing.T) {
	assert.Equal(t, "post:12", DocID(model.SearchKindPost, 12))
	assert.Equal(t, "content:3", DocID(model.SearchKindContent, 3))
}

func TestDocumentIndexIndex(t *testing.T) {
	index, requests := newTestIndex(t, http.StatusCreated)

	doc := model.SearchDocument{DocID: "post:1", Kind: model.SearchKindPost, SourceID: 1, Title: "Hello"}
	require.NoError(t, index.Index(context.Background(), doc))

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/cms_content/_doc/post:1", req.path)
	assert.Contains(t, req.body, `"title":"Hello"`)
}

func TestDocumentIndexDeleteMissingIsOK(t *testing.T) {
	index, _ := newTestIndex(t, http.StatusNotFound)
	assert.NoError(t, index.Delete(context.Background(), "post:404"))
}

func TestDocumentIndexErrors(t *testing.T) {
	index, _ := newTestIndex(t, http.StatusBadRequest)
	assert.Error(t, index.Index(context.Background(), model.SearchDocument{DocID: "post:1"}))
	assert.Error(t, index.Delete(context.Background(), "post:1"))
}
