package handler

import (
	"net/http"

	"Memeologia/internal/middleware"
	"Memeologia/internal/pkg"
	"Memeologia/internal/validation"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// writeError 按错误分类写状态码；未分类错误只记日志，不把原始信息返回给客户端
func writeError(c *gin.Context, log *zap.Logger, err error) {
	status := pkg.HTTPStatus(err)
	msg := err.Error()
	if !pkg.IsClassified(err) {
		msg = "internal server error"
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"msg": msg})
}

func badParams(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
}

func pathAccountID(c *gin.Context) (uint64, error) {
	return validation.AccountID(c.Param("id"))
}

func pathObjectID(c *gin.Context) (primitive.ObjectID, error) {
	return validation.ObjectID(c.Param("id"))
}

func currentAccount(c *gin.Context) (uint64, error) {
	id, ok := middleware.AccountID(c)
	if !ok {
		return 0, pkg.Auth("unauthorized")
	}
	return id, nil
}
