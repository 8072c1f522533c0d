package handler

import (
	"net/http"

	"Memeologia/internal/service"
	"Memeologia/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentHandler struct {
	svc  *service.CommentService
	feed *service.FeedService
	log  *zap.Logger
}

func NewCommentHandler(svc *service.CommentService, feed *service.FeedService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, feed: feed, log: log}
}

type CreateCommentReq struct {
	AccountID string `json:"account_id" form:"account_id"`
	MemeID    string `json:"meme_id" form:"meme_id"`
	Content   string `json:"content" form:"content"`
}

// Create POST /insert/comentarios_insert/
func (h *CommentHandler) Create(c *gin.Context) {
	var req CreateCommentReq
	if err := c.ShouldBind(&req); err != nil {
		badParams(c)
		return
	}
	accountID, err := validation.AccountID(req.AccountID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	memeID, err := validation.ObjectID(req.MemeID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	cm, err := h.svc.Create(c.Request.Context(), accountID, memeID, req.Content)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

// List GET /select/comentarios_select/
func (h *CommentHandler) List(c *gin.Context) {
	list, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListForMeme GET /memes/:id/comments
func (h *CommentHandler) ListForMeme(c *gin.Context) {
	id, err := pathObjectID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	list, err := h.feed.CommentsForMeme(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// AddToMeme POST /memes/:id/comments，评论者为当前登录账号
func (h *CommentHandler) AddToMeme(c *gin.Context) {
	id, err := pathObjectID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	accountID, err := currentAccount(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.ShouldBind(&req); err != nil {
		badParams(c)
		return
	}
	cm, err := h.svc.Create(c.Request.Context(), accountID, id, req.Content)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}
