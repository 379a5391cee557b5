package user

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/apperror"
	"github.com/mundo-dos-mangues/mangues-backend/pkg/token"
)

// ClaimsKey 是已验证身份在gin上下文中的键
const ClaimsKey = "usuario"

// RequireToken 校验 Authorization: Bearer <token>，成功后把身份放入上下文。
// 缺少令牌返回401，令牌无效或过期返回403。
func RequireToken(issuer *token.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, raw, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		raw = strings.TrimSpace(raw)
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			_ = c.Error(apperror.Unauthorized("Acesso negado. Token não fornecido."))
			c.Abort()
			return
		}

		claims, err := issuer.Verify(raw)
		if err != nil {
			_ = c.Error(apperror.Forbidden("Token inválido ou expirado."))
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// CurrentClaims 读取 RequireToken 放入的身份
func CurrentClaims(c *gin.Context) (*token.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*token.Claims)
	return claims, ok
}
