// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/middleware"
	"github.com/haierkeys/bento-note-sync/pkg/code"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// logError logs unexpected failures; coded errors were already shown to the user.
func (h *Handler) logError(ctx context.Context, method string, err error) {
	var c *code.Code
	if errors.As(err, &c) {
		return
	}
	h.App.Logger().Warn(method,
		zap.String("trace-id", middleware.GetTraceID(ctx)),
		zap.Error(err))
}
