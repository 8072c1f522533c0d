package handler

import (
	"net/http"

	"Memeologia/internal/service"
	"Memeologia/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MemeHandler struct {
	svc *service.MemeService
	log *zap.Logger
}

func NewMemeHandler(svc *service.MemeService, log *zap.Logger) *MemeHandler {
	return &MemeHandler{svc: svc, log: log}
}

type CreateMemeReq struct {
	AccountID string `json:"account_id" form:"account_id"`
	Format    string `json:"format" form:"format"`
	Active    *bool  `json:"active" form:"active"`
}

// CreateStub POST /insert/memes_insert/
func (h *MemeHandler) CreateStub(c *gin.Context) {
	var req CreateMemeReq
	if err := c.ShouldBind(&req); err != nil {
		badParams(c)
		return
	}
	accountID, err := validation.AccountID(req.AccountID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	active := false
	if req.Active != nil {
		active = *req.Active
	}
	m, err := h.svc.CreateStub(c.Request.Context(), accountID, req.Format, active)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// List GET /select/memesselect/
func (h *MemeHandler) List(c *gin.Context) {
	list, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// SetState PUT /update/memes_update/:id
func (h *MemeHandler) SetState(c *gin.Context) {
	id, err := pathObjectID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var req struct {
		Active *bool `json:"active" form:"active"`
	}
	if err := c.ShouldBind(&req); err != nil || req.Active == nil {
		badParams(c)
		return
	}
	if err := h.svc.SetState(c.Request.Context(), id, *req.Active); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// Delete DELETE /delete/meme_delete/:id
func (h *MemeHandler) Delete(c *gin.Context) {
	id, err := pathObjectID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// Upload POST /upload，multipart 字段 file、category、tags
func (h *MemeHandler) Upload(c *gin.Context) {
	accountID, err := currentAccount(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	img, closeFn, err := formImage(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	defer closeFn()

	m, err := h.svc.Upload(c.Request.Context(), accountID, img, c.PostForm("category"), c.PostFormArray("tags"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// ToggleLike POST /like-meme/:id
func (h *MemeHandler) ToggleLike(c *gin.Context) {
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
	st, err := h.svc.ToggleLike(c.Request.Context(), id, accountID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Report POST /memes/:id/report
func (h *MemeHandler) Report(c *gin.Context) {
	id, err := pathObjectID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	n, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meme_id": id.Hex(), "reports": n})
}
