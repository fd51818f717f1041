package middleware

import (
	pkgapp "github.com/haierkeys/bento-note-sync/pkg/app"
	"github.com/haierkeys/bento-note-sync/pkg/code"

	"github.com/gin-gonic/gin"
)

// Reject writes the answer of a request a middleware refuses, then aborts it.
// Reject 中间件拒绝请求时的输出方式
type Reject func(c *gin.Context, codeObj *code.Code)

// RejectWithResponse answers with the unified Res envelope.
func RejectWithResponse(c *gin.Context, codeObj *code.Code) {
	pkgapp.NewResponse(c).ToResponse(codeObj)
	c.Abort()
}
