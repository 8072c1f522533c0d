package middleware

import (
	"context"
	"net/http"
	"strings"

	"Memeologia/internal/pkg"

	"github.com/gin-gonic/gin"
)

const ContextAccountIDKey = "account_id"

// SessionChecker 校验 token 是否为账号当前唯一会话
type SessionChecker interface {
	Get(ctx context.Context, accountID uint64) (string, error)
	Extend(ctx context.Context, accountID uint64) error
}

func AuthMiddleware(issuer *pkg.TokenIssuer, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		claims, err := issuer.ParseAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
			return
		}

		// redis校验是否是正确的token
		current, err := sessions.Get(c.Request.Context(), claims.AccountID)
		if err != nil || current != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "session expired or logged in elsewhere"})
			return
		}

		// 校验通过后更新过期时间
		if err := sessions.Extend(c.Request.Context(), claims.AccountID); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": "session store unavailable"})
			return
		}

		c.Set(ContextAccountIDKey, claims.AccountID)
		c.Next()
	}
}

// AccountID 取出鉴权中间件注入的账号 id
func AccountID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(ContextAccountIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
