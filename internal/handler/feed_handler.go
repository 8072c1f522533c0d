package handler

import (
	"net/http"
	"strconv"

	"Memeologia/internal/pkg"
	"Memeologia/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FeedHandler struct {
	feed *service.FeedService
	log  *zap.Logger
}

func NewFeedHandler(feed *service.FeedService, log *zap.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, log: log}
}

// Memes GET /memes?page=&limit=
func (h *FeedHandler) Memes(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	page, limit = service.NormalizePage(page, limit)

	rows, err := h.feed.MemesWithAuthors(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page, "limit": limit, "items": rows})
}

// queryInt 参数缺省时返回 0，交给 NormalizePage 取默认值
func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkg.Validation(key + " must be an integer")
	}
	return n, nil
}

// MemesByAuthor GET /select_join/memes_user_join/
func (h *FeedHandler) MemesByAuthor(c *gin.Context) {
	groups, err := h.feed.MemesGroupedByAuthor(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// CommentsByAuthor GET /select_join/comentarios_join/
func (h *FeedHandler) CommentsByAuthor(c *gin.Context) {
	groups, err := h.feed.CommentsGroupedByAuthor(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// Profile GET /api/usuario/:id
func (h *FeedHandler) Profile(c *gin.Context) {
	id, err := pathAccountID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	p, err := h.feed.UserProfileWithMemes(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
