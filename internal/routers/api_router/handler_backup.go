package api_router

import (
	"io"
	"net/http"

	"github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/dto"
	"github.com/haierkeys/bento-note-sync/internal/service"
	"github.com/haierkeys/bento-note-sync/internal/ui"
	pkgapp "github.com/haierkeys/bento-note-sync/pkg/app"
	"github.com/haierkeys/bento-note-sync/pkg/code"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"

	"github.com/gin-gonic/gin"
)

// MaxImportSize 导入文件大小上限
const MaxImportSize = 64 << 20

// BackupHandler backup API router handler
// BackupHandler 手动同步、导出导入与下载兜底
type BackupHandler struct {
	*Handler
}

// NewBackupHandler creates BackupHandler instance
func NewBackupHandler(a *app.App) *BackupHandler {
	return &BackupHandler{
		Handler: NewHandler(a),
	}
}

// Upload uploads the local data to WebDAV
// @Summary Upload backup to WebDAV
// @Tags Backup
// @Accept json
// @Produce json
// @Param params body dto.UploadRequest true "confirm overwriting a newer remote backup"
// @Success 200 {object} pkgapp.Res{data=service.UploadResult} "Success"
// @Router /api/backup/upload [post]
func (h *BackupHandler) Upload(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.UploadRequest{}

	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	res, err := h.App.BackupService.UploadToRemote(c.Request.Context(), h.App.UID(), ui.Static(params.Confirm))
	if err != nil {
		h.logError(c.Request.Context(), "BackupHandler.Upload", err)
		response.ToError(err, code.ErrorRemoteUploadFailed)
		return
	}

	if !res.Uploaded {
		response.ToResponse(code.SuccessUploadCancelled.WithData(res))
		return
	}
	response.ToResponse(code.SuccessUploaded.WithData(res))
}

// Restore replaces the local data with the WebDAV backup
// @Summary Restore from WebDAV
// @Tags Backup
// @Accept json
// @Produce json
// @Param params body dto.RestoreRequest true "confirm and source (sync|auto)"
// @Success 200 {object} pkgapp.Res{data=service.RestoreResult} "Success"
// @Router /api/backup/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.RestoreRequest{}

	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	res, err := h.App.BackupService.RestoreFromRemote(c.Request.Context(), h.App.UID(),
		service.RestoreOptions{AutoBackup: params.AutoBackup()}, ui.Static(params.Confirm))
	if err != nil {
		h.logError(c.Request.Context(), "BackupHandler.Restore", err)
		response.ToError(err, code.ErrorRestoreFailed)
		return
	}

	if !res.Restored {
		response.ToResponse(code.SuccessRestoreCancelled.WithData(res))
		return
	}
	response.ToResponse(code.SuccessRestored.WithData(res))
}

// Connection tests WebDAV parameters without saving them
// @Summary Test WebDAV connection
// @Tags Backup
// @Accept json
// @Produce json
// @Param params body dto.ConnectionRequest true "WebDAV parameters"
// @Success 200 {object} pkgapp.Res "Success"
// @Router /api/backup/connection [post]
func (h *BackupHandler) Connection(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ConnectionRequest{}

	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	err := h.App.BackupService.TestConnection(c.Request.Context(), webdav.Config{
		URL:      params.URL,
		Username: params.Username,
		Password: params.Password,
	})
	if err != nil {
		h.logError(c.Request.Context(), "BackupHandler.Connection", err)
		response.ToError(err, code.ErrorRemoteUnavailable)
		return
	}
	response.ToResponse(code.SuccessConnected)
}

// Export returns the dated backup file, or writes it into ?dir= on the desktop
// @Summary Export local backup
// @Tags Backup
// @Produce json
// @Param dir query string false "target directory (desktop only)"
// @Router /api/backup/export [get]
func (h *BackupHandler) Export(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ExportRequest{}

	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	if params.Dir != "" {
		path, err := h.App.BackupService.ExportToDir(c.Request.Context(), h.App.UID(), params.Dir)
		if err != nil {
			h.logError(c.Request.Context(), "BackupHandler.Export", err)
			response.ToError(err, code.ErrorExportFailed)
			return
		}
		response.ToResponse(code.SuccessExported.WithData(dto.ExportDTO{Path: path}))
		return
	}

	name, data, err := h.App.BackupService.Export(c.Request.Context(), h.App.UID())
	if err != nil {
		h.logError(c.Request.Context(), "BackupHandler.Export", err)
		response.ToError(err, code.ErrorExportFailed)
		return
	}
	sendFile(c, name, data)
}

// Import merges an uploaded backup file into the local data
// @Summary Import backup file
// @Tags Backup
// @Accept json,mpfd
// @Produce json
// @Param file formData file false "backup file; the raw request body is used when absent"
// @Success 200 {object} pkgapp.Res{data=service.RestoreResult} "Success"
// @Router /api/backup/import [post]
func (h *BackupHandler) Import(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	data, err := readImport(c)
	if err != nil {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}

	res, err := h.App.BackupService.Import(c.Request.Context(), h.App.UID(), data)
	if err != nil {
		h.logError(c.Request.Context(), "BackupHandler.Import", err)
		response.ToError(err, code.ErrorImportFailed)
		return
	}
	response.ToResponse(code.SuccessImported.WithData(res))
}

// Download hands out the pending browser-fallback backup once
// @Summary Download pending auto backup
// @Tags Backup
// @Router /api/backup/download [get]
func (h *BackupHandler) Download(c *gin.Context) {
	f, ok := h.App.Downloads.Take()
	if !ok {
		pkgapp.NewResponse(c).ToResponse(code.ErrorNoDownloadOffer)
		return
	}
	sendFile(c, f.Name, f.Data)
}

func sendFile(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func readImport(c *gin.Context) ([]byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, MaxImportSize))
	}
	return io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxImportSize))
}
