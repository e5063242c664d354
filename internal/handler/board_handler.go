package handler

import (
	"cms-go/internal/service"

	"github.com/gin-gonic/gin"
)

// BoardHandler 负责处理版块和帖子相关的请求。
type BoardHandler struct {
	boardService service.BoardService
}

// NewBoardHandler 创建一个新的 BoardHandler 实例。
func NewBoardHandler(boardService service.BoardService) *BoardHandler {
	return &BoardHandler{boardService: boardService}
}

func (h *BoardHandler) ListBoards(c *gin.Context) {
	boards, err := h.boardService.ListBoards()
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, boards)
}

func (h *BoardHandler) GetBoard(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	board, err := h.boardService.GetBoard(id)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, board)
}

func (h *BoardHandler) CreateBoard(c *gin.Context) {
	var input service.BoardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "无效的请求负载：name 和 slug 不能为空")
		return
	}
	board, err := h.boardService.CreateBoard(input)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, board)
}

func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input service.BoardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "无效的请求负载：name 和 slug 不能为空")
		return
	}
	board, err := h.boardService.UpdateBoard(id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, board)
}

func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.boardService.DeleteBoard(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	success(c, nil)
}

// ListPosts 分页返回版块中的帖子，公开接口和管理接口共用。
func (h *BoardHandler) ListPosts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, err := h.boardService.ListPosts(id, queryInt(c, "page", 1), queryInt(c, "size", 20))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, page)
}

func (h *BoardHandler) GetPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := h.boardService.GetPost(id)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, post)
}

// ViewPost 是公开的帖子详情接口，会增加浏览数。
func (h *BoardHandler) ViewPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := h.boardService.ViewPost(id)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, post)
}

func (h *BoardHandler) CreatePost(c *gin.Context) {
	boardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input service.PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "无效的请求负载：title 不能为空")
		return
	}
	post, err := h.boardService.CreatePost(c.Request.Context(), boardID, currentUserID(c), input)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, post)
}

func (h *BoardHandler) UpdatePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input service.PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "无效的请求负载：title 不能为空")
		return
	}
	post, err := h.boardService.UpdatePost(c.Request.Context(), id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, post)
}

func (h *BoardHandler) DeletePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.boardService.DeletePost(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	success(c, nil)
}
