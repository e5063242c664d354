package handler

import (
	"cms-go/internal/service"
	"cms-go/pkg/log"
	"strconv"

	"github.com/gin-gonic/gin"
)

// TemplateHandler 负责处理模板及其版本历史相关的请求。
type TemplateHandler struct {
	templateService service.TemplateService
	previewService  service.PreviewService
}

// NewTemplateHandler 创建一个新的 TemplateHandler 实例。
func NewTemplateHandler(templateService service.TemplateService, previewService service.PreviewService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService, previewService: previewService}
}

// RollbackRequest 是回滚接口的请求体。
type RollbackRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}

// PublishRequest 是发布接口的请求体，published 必须显式提供。
type PublishRequest struct {
	Published *bool `json:"published" binding:"required"`
}

func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templateService.List()
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, templates)
}

func (h *TemplateHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tpl, err := h.templateService.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, tpl)
}

func (h *TemplateHandler) Create(c *gin.Context) {
	var input service.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Warnf("CreateTemplate: Invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载：name 和 type 不能为空")
		return
	}
	tpl, err := h.templateService.Create(input, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, tpl)
}

// Update 保存新的布局，产生一个新版本。
func (h *TemplateHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input service.TemplateUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Warnf("UpdateTemplate: Invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载")
		return
	}
	tpl, err := h.templateService.Update(id, input, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, tpl)
}

func (h *TemplateHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.templateService.Delete(id); err != nil {
		writeError(c, err)
		return
	}
	success(c, nil)
}

func (h *TemplateHandler) ListVersions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	versions, err := h.templateService.ListVersions(id)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, versions)
}

func (h *TemplateHandler) GetVersion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		badRequest(c, "无效的 version")
		return
	}
	v, err := h.templateService.GetVersion(id, version)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, v)
}

func (h *TemplateHandler) Rollback(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req RollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载：version 不能为空")
		return
	}
	tpl, err := h.templateService.Rollback(id, req.Version, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, tpl)
}

func (h *TemplateHandler) Publish(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载：published 不能为空")
		return
	}
	tpl, err := h.templateService.TogglePublish(id, *req.Published)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, tpl)
}

// Preview 渲染模板的当前布局，或通过 ?version= 渲染某个历史版本。
func (h *TemplateHandler) Preview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var version *int
	if raw := c.Query("version"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			badRequest(c, "无效的 version")
			return
		}
		version = &v
	}
	preview, err := h.previewService.Preview(c.Request.Context(), id, version)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, preview)
}

// Published 是公开接口，只返回已发布的模板。
func (h *TemplateHandler) Published(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	preview, err := h.previewService.Published(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, preview)
}
