package handler

import (
	"cms-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ContentHandler 负责处理内容页面相关的请求。
type ContentHandler struct {
	contentService service.ContentService
}

// NewContentHandler 创建一个新的 ContentHandler 实例。
func NewContentHandler(contentService service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

func (h *ContentHandler) List(c *gin.Context) {
	contents, err := h.contentService.List()
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, contents)
}

func (h *ContentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	content, err := h.contentService.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, content)
}

func (h *ContentHandler) Create(c *gin.Context) {
	var input service.ContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "无效的请求负载：title 和 slug 不能为空")
		return
	}
	content, err := h.contentService.Create(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, content)
}

func (h *ContentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input service.ContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "无效的请求负载：title 和 slug 不能为空")
		return
	}
	content, err := h.contentService.Update(c.Request.Context(), id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, content)
}

func (h *ContentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.contentService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	success(c, nil)
}

// Public 按 ID 或 slug 返回已发布的内容页面。
func (h *ContentHandler) Public(c *gin.Context) {
	content, err := h.contentService.GetPublished(c.Param("idOrSlug"))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, content)
}
