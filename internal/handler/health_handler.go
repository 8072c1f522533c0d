package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Check 一个依赖的健康检查
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks []Check
	log    *zap.Logger
}

func NewHealthHandler(log *zap.Logger, checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks, log: log}
}

// Healthz GET /healthz，任一依赖不可用返回 503
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := make([]string, 0)
	for _, chk := range h.checks {
		if err := chk.Ping(ctx); err != nil {
			h.log.Warn("health check failed", zap.String("dependency", chk.Name), zap.Error(err))
			failed = append(failed, chk.Name)
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
