// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"cms-go/internal/middleware"
	"cms-go/internal/model"
	"cms-go/internal/service"
	"cms-go/pkg/log"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": message,
		"data":    data,
	})
}

func success(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, "success", data)
}

func badRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, message, nil)
}

// writeError 把 service 层的错误映射为 HTTP 状态码。5xx 只返回通用信息并记录日志。
func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		respond(c, status, "服务器内部错误", nil)
		return
	}
	log.Warnf("%s %s rejected: %v", c.Request.Method, c.Request.URL.Path, err)
	respond(c, status, err.Error(), nil)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// pathID 解析路径参数中的数字 ID，失败时直接写出 400。
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "无效的 "+name)
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

// currentUser 返回 AuthMiddleware 注入的用户。
func currentUser(c *gin.Context) *model.User {
	value, ok := c.Get(middleware.ContextUser)
	if !ok {
		return nil
	}
	user, _ := value.(*model.User)
	return user
}

func currentUserID(c *gin.Context) uint {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	return 0
}
