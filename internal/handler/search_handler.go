package handler

import (
	"cms-go/internal/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler 负责处理全文搜索请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 处理 GET /search?q=&size= 请求。
func (h *SearchHandler) Search(c *gin.Context) {
	hits, err := h.searchService.Search(c.Request.Context(), c.Query("q"), queryInt(c, "size", 10))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, hits)
}
