package app

import (
	"context"

	"github.com/haierkeys/bento-note-sync/internal/service"
	"github.com/haierkeys/bento-note-sync/internal/ui"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"
)

// trackedBackup registers every backup operation with the container so Shutdown
// waits for it, and refuses new operations once shutdown has begun.
type trackedBackup struct {
	service.BackupService
	app *App
}

func newTrackedBackup(a *App, inner service.BackupService) service.BackupService {
	return &trackedBackup{BackupService: inner, app: a}
}

func (t *trackedBackup) UploadToRemote(ctx context.Context, uid string, confirm ui.Confirmer) (*service.UploadResult, error) {
	done, err := t.app.TrackOperation()
	if err != nil {
		return nil, err
	}
	defer done()
	return t.BackupService.UploadToRemote(ctx, uid, confirm)
}

func (t *trackedBackup) RestoreFromRemote(ctx context.Context, uid string, opts service.RestoreOptions, confirm ui.Confirmer) (*service.RestoreResult, error) {
	done, err := t.app.TrackOperation()
	if err != nil {
		return nil, err
	}
	defer done()
	return t.BackupService.RestoreFromRemote(ctx, uid, opts, confirm)
}

func (t *trackedBackup) RunScheduledBackup(ctx context.Context, uid string) (bool, error) {
	done, err := t.app.TrackOperation()
	if err != nil {
		return false, err
	}
	defer done()
	return t.BackupService.RunScheduledBackup(ctx, uid)
}

func (t *trackedBackup) Export(ctx context.Context, uid string) (string, []byte, error) {
	done, err := t.app.TrackOperation()
	if err != nil {
		return "", nil, err
	}
	defer done()
	return t.BackupService.Export(ctx, uid)
}

func (t *trackedBackup) ExportToDir(ctx context.Context, uid, dir string) (string, error) {
	done, err := t.app.TrackOperation()
	if err != nil {
		return "", err
	}
	defer done()
	return t.BackupService.ExportToDir(ctx, uid, dir)
}

func (t *trackedBackup) Import(ctx context.Context, uid string, data []byte) (*service.RestoreResult, error) {
	done, err := t.app.TrackOperation()
	if err != nil {
		return nil, err
	}
	defer done()
	return t.BackupService.Import(ctx, uid, data)
}

func (t *trackedBackup) TestConnection(ctx context.Context, cfg webdav.Config) error {
	done, err := t.app.TrackOperation()
	if err != nil {
		return err
	}
	defer done()
	return t.BackupService.TestConnection(ctx, cfg)
}
