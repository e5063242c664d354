package handler

import (
	"cms-go/internal/service"

	"github.com/gin-gonic/gin"
)

// MediaHandler 负责处理媒体库相关的请求。
type MediaHandler struct {
	mediaService service.MediaService
}

// NewMediaHandler 创建一个新的 MediaHandler 实例。
func NewMediaHandler(mediaService service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// Upload 处理 multipart 上传，文件字段名为 file。
func (h *MediaHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "缺少上传文件 file")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	media, err := h.mediaService.Upload(c.Request.Context(), currentUserID(c), service.MediaUpload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      file,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, media)
}

func (h *MediaHandler) List(c *gin.Context) {
	media, err := h.mediaService.List()
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, media)
}

func (h *MediaHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.mediaService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	success(c, nil)
}

// URL 返回限时的下载链接。
func (h *MediaHandler) URL(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	url, err := h.mediaService.URL(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, gin.H{"url": url})
}
