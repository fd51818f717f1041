package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/haierkeys/bento-note-sync/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger 创建带日志器的 Recovery 中间件，panic 通过 reject 返回统一错误
func RecoveryWithLogger(logger *zap.Logger, reject Reject) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		defer func() {
			if err := recover(); err != nil {
				var errorMsg string
				switch v := err.(type) {
				case string:
					errorMsg = v
				case error:
					errorMsg = v.Error()
				default:
					errorMsg = fmt.Sprintf("%v", v)
				}

				logger.Error("Recovered from panic",
					zap.Int("status", c.Writer.Status()),
					zap.String("router", path),
					zap.String("method", c.Request.Method),
					zap.String("query", c.Request.URL.RawQuery),
					zap.String("ip", c.ClientIP()),
					zap.String("trace-id", GetTraceIDFromGin(c)),
					zap.String("panic_value", errorMsg),
					zap.String("stack", string(debug.Stack())), // 错误堆栈
				)

				reject(c, code.ErrorServerInternal.WithDetails(errorMsg))
			}
		}()

		c.Next()
	}
}
