package handler

import (
	"cms-go/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责处理管理员对用户的增删改查。
type UserHandler struct {
	adminService service.AdminService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(adminService service.AdminService) *UserHandler {
	return &UserHandler{adminService: adminService}
}

// ListUsers 以分页形式返回用户列表，page 从 1 开始。
func (h *UserHandler) ListUsers(c *gin.Context) {
	page := queryInt(c, "page", 1)
	size := queryInt(c, "size", 20)
	users, err := h.adminService.ListUsers(page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, users)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载：用户名和密码不能为空")
		return
	}
	user, err := h.adminService.CreateUser(req)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	user, err := h.adminService.UpdateUser(id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteUser(id); err != nil {
		writeError(c, err)
		return
	}
	success(c, nil)
}
