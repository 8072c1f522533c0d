package handler

import (
	"net/http"

	"Memeologia/internal/model"
	"Memeologia/internal/pkg"
	"Memeologia/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxUploadSize = 10 << 20

type AccountHandler struct {
	svc *service.AccountService
	log *zap.Logger
}

func NewAccountHandler(svc *service.AccountService, log *zap.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, log: log}
}

// RegisterReq 注册请求，JSON 或表单/查询参数；公开注册一律是普通用户
type RegisterReq struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Register POST /insert/usuarios_insert/
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBind(&req); err != nil {
		badParams(c)
		return
	}
	acc, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password, model.RoleUser)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}

// List GET /select/usuarios_select/
func (h *AccountHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Rename PUT /update/usuarios_update/:id
func (h *AccountHandler) Rename(c *gin.Context) {
	id, err := pathAccountID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var req struct {
		Name string `json:"name" form:"name"`
	}
	if err := c.ShouldBind(&req); err != nil {
		badParams(c)
		return
	}
	if err := h.svc.Rename(c.Request.Context(), id, req.Name); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// Delete DELETE /delete/usuarios_delete/:id
func (h *AccountHandler) Delete(c *gin.Context) {
	id, err := pathAccountID(c)
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

// Login 登录接口
func (h *AccountHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.ShouldBind(&req); err != nil {
		badParams(c)
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *AccountHandler) Logout(c *gin.Context) {
	id, err := currentAccount(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if err := h.svc.Logout(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// TokenRefresh 利用refresh来更新access
func (h *AccountHandler) TokenRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" form:"refresh_token"`
	}
	if err := c.ShouldBind(&req); err != nil || req.RefreshToken == "" {
		badParams(c)
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// UploadPhoto POST /api/usuario/:id/photo，表单字段 file
func (h *AccountHandler) UploadPhoto(c *gin.Context) {
	id, err := pathAccountID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	actor, err := currentAccount(c)
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

	url, err := h.svc.UploadPhoto(c.Request.Context(), actor, id, img)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": id, "photo_url": url})
}

// formImage 读取表单中的 file 字段并识别图片类型
func formImage(c *gin.Context) (*service.Image, func(), error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil, pkg.Validation("file is required")
	}
	if fh.Size > maxUploadSize {
		return nil, nil, pkg.Validation("file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	img, err := service.DetectImage(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return img, func() { _ = f.Close() }, nil
}
