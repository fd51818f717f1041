package middleware

import (
	"github.com/haierkeys/bento-note-sync/pkg/code"

	"github.com/gin-gonic/gin"
)

// NoFound 404 handler
// NoFound 404 处理
func NoFound(reject Reject) gin.HandlerFunc {
	return func(c *gin.Context) {
		reject(c, code.ErrorNotFound.WithDetails(c.Request.URL.Path))
	}
}
