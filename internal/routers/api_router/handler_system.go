package api_router

import (
	"time"

	"github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/dto"
	pkgapp "github.com/haierkeys/bento-note-sync/pkg/app"
	"github.com/haierkeys/bento-note-sync/pkg/code"

	"github.com/gin-gonic/gin"
)

// SystemHandler 健康检查、版本、通知与笔记库
type SystemHandler struct {
	*Handler
}

// NewSystemHandler 创建 SystemHandler 实例
func NewSystemHandler(a *app.App) *SystemHandler {
	return &SystemHandler{Handler: NewHandler(a)}
}

// Health 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态，包括数据库连接
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.HealthDTO}
// @Router /api/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	cfg := h.App.Config()
	res := dto.HealthDTO{
		Status:    "healthy",
		Version:   h.App.Version().Version,
		Uptime:    time.Since(h.App.StartTime).Seconds(),
		Database:  "connected",
		Platform:  cfg.App.Platform,
		Transport: cfg.App.Transport,
	}

	if h.App.IsShuttingDown() {
		res.Status = "shutting_down"
		pkgapp.NewResponse(c).ToResponse(code.ErrorUnhealthy.WithData(res))
		return
	}

	// 检查数据库连接
	if err := h.App.DB.WithContext(c.Request.Context()).Exec("SELECT 1").Error; err != nil {
		res.Status = "unhealthy"
		res.Database = "error"
		pkgapp.NewResponse(c).ToResponse(code.ErrorUnhealthy.WithData(res))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(res))
}

// Version 服务版本
// @Summary Get version info
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.VersionDTO} "Success"
// @Router /api/version [get]
func (h *SystemHandler) Version(c *gin.Context) {
	v := h.App.Version()
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(dto.VersionDTO{
		Name:      app.Name,
		Version:   v.Version,
		GitTag:    v.GitTag,
		BuildTime: v.BuildTime,
	}))
}

// Notifications returns and clears the recent notifications
// @Summary Poll notifications
// @Tags 系统
// @Produce json
// @Router /api/notifications [get]
func (h *SystemHandler) Notifications(c *gin.Context) {
	msgs := h.App.Notifications.Drain()
	pkgapp.NewResponse(c).ToResponseList(code.Success, msgs, len(msgs))
}

// Library lists the notes and folders of the current user; note passwords are never returned
// @Summary Current library
// @Tags Library
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.LibraryDTO} "Success"
// @Router /api/library [get]
func (h *SystemHandler) Library(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	notes, folders, err := h.App.LibraryService.Load(c.Request.Context(), h.App.UID())
	if err != nil {
		h.logError(c.Request.Context(), "SystemHandler.Library", err)
		response.ToError(err, code.ErrorServerInternal)
		return
	}
	for i := range notes {
		notes[i].Password = ""
		if notes[i].IsLocked {
			notes[i].Content = ""
		}
	}
	response.ToResponse(code.Success.WithData(dto.LibraryDTO{Notes: notes, Folders: folders}))
}

// Unlock opens a locked note
// @Summary Unlock note
// @Tags Library
// @Accept json
// @Produce json
// @Param params body dto.UnlockRequest true "note id and secret"
// @Success 200 {object} pkgapp.Res{data=object} "Success"
// @Router /api/note/unlock [post]
func (h *SystemHandler) Unlock(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.UnlockRequest{}

	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	note, err := h.App.LibraryService.Unlock(c.Request.Context(), h.App.UID(), params.ID, params.Secret)
	if err != nil {
		response.ToError(err, code.ErrorUnlockFailure)
		return
	}
	out := *note
	out.Password = ""
	response.ToResponse(code.Success.WithData(out))
}
