package handler

import (
	"cms-go/internal/middleware"
	"cms-go/internal/service"
	"cms-go/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责处理登录、校验、刷新和登出请求。
type AuthHandler struct {
	userService service.UserService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// LoginRequest 定义了用户登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 定义了刷新 token API 的请求体结构。
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Login 处理用户登录请求。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载：用户名和密码不能为空")
		return
	}

	result, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Login successful", result)
}

// Verify 返回当前 token 对应的用户。
func (h *AuthHandler) Verify(c *gin.Context) {
	success(c, currentUser(c))
}

// RefreshToken 处理刷新 token 的请求。
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("RefreshToken: Invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载：refreshToken 不能为空")
		return
	}

	result, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Token refreshed successfully", result)
}

// Logout 将当前 access token 加入黑名单。
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString := c.GetString(middleware.ContextToken)
	if err := h.userService.Logout(c.Request.Context(), tokenString); err != nil {
		writeError(c, err)
		return
	}
	if user := currentUser(c); user != nil {
		log.Infof("User '%s' logged out successfully", user.Username)
	}
	respond(c, http.StatusOK, "登出成功", nil)
}
