package api_router

import (
	"time"

	"github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/internal/dto"
	pkgapp "github.com/haierkeys/bento-note-sync/pkg/app"
	"github.com/haierkeys/bento-note-sync/pkg/code"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"

	"github.com/gin-gonic/gin"
)

// redactedPassword is what clients get back instead of the stored password.
const redactedPassword = "******"

// SettingHandler 备份设置读写，本地设置界面唯一的写入入口
type SettingHandler struct {
	*Handler
}

// NewSettingHandler creates SettingHandler instance
func NewSettingHandler(a *app.App) *SettingHandler {
	return &SettingHandler{Handler: NewHandler(a)}
}

// Get returns the backup settings, password redacted
// @Summary Get backup settings
// @Tags Settings
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.SettingsDTO} "Success"
// @Router /api/backup/settings [get]
func (h *SettingHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	settings, err := h.App.SettingService.Get(c.Request.Context())
	if err != nil {
		h.logError(c.Request.Context(), "SettingHandler.Get", err)
		response.ToError(err, code.ErrorServerInternal)
		return
	}
	response.ToResponse(code.Success.WithData(h.toDTO(settings)))
}

// Update validates and saves the backup settings
// A password equal to the redacted placeholder keeps the stored one.
// @Summary Save backup settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param params body dto.SettingsRequest true "settings"
// @Success 200 {object} pkgapp.Res{data=dto.SettingsDTO} "Success"
// @Router /api/backup/settings [post]
func (h *SettingHandler) Update(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.SettingsRequest{}

	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	ctx := c.Request.Context()
	current, err := h.App.SettingService.Get(ctx)
	if err != nil {
		h.logError(ctx, "SettingHandler.Update", err)
		response.ToError(err, code.ErrorSettingSave)
		return
	}

	next := domain.BackupSettings{
		Interval: domain.BackupInterval(params.Interval),
		Location: domain.BackupLocation(params.Location),
		Remote: webdav.Config{
			URL:      params.WebDAV.URL,
			Username: params.WebDAV.Username,
			Password: params.WebDAV.Password,
		},
		LocalPath: params.LocalPath,
	}
	if next.Remote.Password == redactedPassword {
		next.Remote.Password = current.Remote.Password
	}

	if next.Location == domain.LocationLocal && next.LocalPath != "" && h.App.FileSystem != nil {
		dir, err := h.App.FileSystem.SelectDirectory(next.LocalPath)
		if err != nil {
			response.ToResponse(code.ErrorLocalWrite.WithDetails(err.Error()))
			return
		}
		next.LocalPath = dir
	}

	saved, err := h.App.SettingService.Update(ctx, next)
	if err != nil {
		h.logError(ctx, "SettingHandler.Update", err)
		response.ToError(err, code.ErrorSettingSave)
		return
	}
	response.ToResponse(code.SuccessSettingsSaved.WithData(h.toDTO(saved)))
}

func (h *SettingHandler) toDTO(s domain.BackupSettings) dto.SettingsDTO {
	s = s.Redacted()
	out := dto.SettingsDTO{
		Interval: string(s.Interval),
		Location: string(s.Location),
		WebDAV: dto.WebDAVConfig{
			URL:      s.Remote.URL,
			Username: s.Remote.Username,
			Password: s.Remote.Password,
		},
		LocalPath:      s.LocalPath,
		LastBackupTime: s.LastBackupTime,
		State:          "idle",
	}
	if s.Interval.Enabled() {
		out.State = "armed"
		out.NextCheck = NextBackupTime(h.App.Clock.Now(), s.LastBackupTime, s.Interval.Duration())
	}
	if name, ok := h.App.Downloads.Pending(); ok {
		out.Pending = name
	}
	return out
}

// NextBackupTime is the first instant, in epoch ms, a scheduled backup becomes due.
// NextBackupTime 下一次自动备份的最早时间
func NextBackupTime(now time.Time, lastMs int64, interval time.Duration) int64 {
	if lastMs == 0 {
		return now.UnixMilli()
	}
	return lastMs + interval.Milliseconds() + 1
}
