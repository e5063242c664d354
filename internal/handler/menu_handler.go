package handler

import (
	"cms-go/internal/service"
	"cms-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// MenuHandler 负责处理菜单树的查询、编辑和重排请求。
type MenuHandler struct {
	menuService service.MenuService
}

// NewMenuHandler 创建一个新的 MenuHandler 实例。
func NewMenuHandler(menuService service.MenuService) *MenuHandler {
	return &MenuHandler{menuService: menuService}
}

// ReorderRequest 是重排接口的请求体，menuOrders 按顺序执行。
type ReorderRequest struct {
	MenuOrders []service.MenuMove `json:"menuOrders" binding:"required,dive"`
}

// PublicTree 返回公开可见的菜单树。
func (h *MenuHandler) PublicTree(c *gin.Context) {
	tree, err := h.menuService.Tree(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, tree)
}

// AdminTree 返回包含隐藏节点的完整菜单树，?flat=true 时返回扁平列表。
func (h *MenuHandler) AdminTree(c *gin.Context) {
	if c.Query("flat") == "true" {
		menus, err := h.menuService.List()
		if err != nil {
			writeError(c, err)
			return
		}
		success(c, menus)
		return
	}
	tree, err := h.menuService.AdminTree(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, tree)
}

func (h *MenuHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	menu, err := h.menuService.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, menu)
}

func (h *MenuHandler) Create(c *gin.Context) {
	var input service.MenuInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Warnf("CreateMenu: Invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载：name 和 type 不能为空")
		return
	}
	menu, err := h.menuService.Create(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, menu)
}

func (h *MenuHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input service.MenuInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Warnf("UpdateMenu: Invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载：name 和 type 不能为空")
		return
	}
	menu, err := h.menuService.Update(c.Request.Context(), id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, menu)
}

func (h *MenuHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.menuService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	success(c, nil)
}

// Reorder 在一个事务中执行一批移动操作，任意一步失败时不会写入任何变更。
func (h *MenuHandler) Reorder(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("ReorderMenu: Invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载：menuOrders 中每一项都需要 id、targetId 和 position")
		return
	}
	if err := h.menuService.Reorder(c.Request.Context(), req.MenuOrders); err != nil {
		writeError(c, err)
		return
	}
	success(c, gin.H{"success": true})
}
