package middleware

import (
	pkgapp "github.com/haierkeys/bento-note-sync/pkg/app"
	"github.com/haierkeys/bento-note-sync/pkg/code"

	"github.com/gin-gonic/gin"
)

// RelayAuth 中继 Token 认证中间件
// Accepts "Authorization: Bearer <token>" and stores the verified claims.
func RelayAuth(tm pkgapp.TokenManager, reject Reject) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := pkgapp.BearerToken(c)
		if token == "" {
			reject(c, code.ErrorTokenRequired)
			return
		}

		claims, err := tm.Parse(token)
		if err != nil {
			reject(c, code.ErrorTokenInvalid.WithDetails(err.Error()))
			return
		}
		c.Set(pkgapp.ContextKeyRelayClaims, claims)

		c.Next()
	}
}
