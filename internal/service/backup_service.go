package service

import (
	"context"
	"fmt"
	"time"

	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/internal/platform"
	"github.com/haierkeys/bento-note-sync/internal/snapshot"
	"github.com/haierkeys/bento-note-sync/internal/ui"
	"github.com/haierkeys/bento-note-sync/pkg/clock"
	"github.com/haierkeys/bento-note-sync/pkg/code"
	"github.com/haierkeys/bento-note-sync/pkg/logger"
	"github.com/haierkeys/bento-note-sync/pkg/metrics"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	actionUpload  = "upload"
	actionRestore = "restore"
	actionBackup  = "backup"
	actionExport  = "export"
	actionImport  = "import"

	modeManual    = "manual"
	modeScheduled = "scheduled"
)

// UploadResult 手动上传结果
type UploadResult struct {
	Uploaded       bool      `json:"uploaded"`
	Conflict       bool      `json:"conflict"`
	RemoteModified time.Time `json:"remoteModified,omitzero"`
	SnapshotTime   time.Time `json:"snapshotTime"`
	File           string    `json:"file"`
}

// RestoreOptions selects which remote file to restore.
type RestoreOptions struct {
	// AutoBackup restores the rolling scheduled backup instead of the manual sync file.
	AutoBackup bool
}

// RestoreResult 恢复/导入结果
type RestoreResult struct {
	Restored     bool      `json:"restored"`
	Notes        int       `json:"notes"`
	Folders      int       `json:"folders"`
	SnapshotTime time.Time `json:"snapshotTime,omitzero"`
	// Newer is set when the file came from a newer schema major version.
	Newer bool   `json:"newer,omitempty"`
	File  string `json:"file,omitempty"`
}

// BackupService is the sync orchestrator: manual upload and restore against the
// remote store, scheduled backups, and local export/import.
// BackupService 同步编排：手动上传/恢复、自动备份、导出/导入
type BackupService interface {
	// UploadToRemote uploads the local snapshot. When the remote file is newer than
	// the snapshot, confirm decides; a declined conflict uploads nothing and is not an error.
	UploadToRemote(ctx context.Context, uid string, confirm ui.Confirmer) (*UploadResult, error)
	// RestoreFromRemote replaces all local data of uid with the remote snapshot.
	// It always asks confirm first.
	RestoreFromRemote(ctx context.Context, uid string, opts RestoreOptions, confirm ui.Confirmer) (*RestoreResult, error)
	// RunScheduledBackup performs one autonomous backup to the configured destination.
	// recorded reports whether lastBackupTime was advanced.
	RunScheduledBackup(ctx context.Context, uid string) (recorded bool, err error)
	// Export returns the dated export file name and its indented content.
	Export(ctx context.Context, uid string) (name string, data []byte, err error)
	// ExportToDir writes the export file into dir through the privileged file system.
	ExportToDir(ctx context.Context, uid, dir string) (string, error)
	// Import merges a snapshot file into the local data without deleting anything.
	Import(ctx context.Context, uid string, data []byte) (*RestoreResult, error)
	// TestConnection probes cfg without saving it.
	TestConnection(ctx context.Context, cfg webdav.Config) error
}

type backupService struct {
	settings SettingService
	library  LibraryService
	dataset  domain.DatasetRepository
	codec    *snapshot.Codec
	remote   RemoteFactory
	fs       platform.FileSystem // nil outside the desktop shell
	download *platform.DownloadOffer
	notifier ui.Notifier
	metrics  *metrics.Sync
	clock    clock.Clock
	logger   *zap.Logger

	// manual triggers are exclusive; scheduled runs do not take it
	manual *semaphore.Weighted
}

// NewBackupService creates BackupService instance
// 创建 BackupService 实例，fs 为 nil 表示浏览器环境
func NewBackupService(
	settings SettingService,
	library LibraryService,
	dataset domain.DatasetRepository,
	codec *snapshot.Codec,
	remote RemoteFactory,
	fs platform.FileSystem,
	download *platform.DownloadOffer,
	notifier ui.Notifier,
	m *metrics.Sync,
	clk clock.Clock,
	logger *zap.Logger,
) BackupService {
	if notifier == nil {
		notifier = ui.NewLogNotifier(logger)
	}
	if download == nil {
		download = platform.NewDownloadOffer()
	}
	return &backupService{
		settings: settings,
		library:  library,
		dataset:  dataset,
		codec:    codec,
		remote:   remote,
		fs:       fs,
		download: download,
		notifier: notifier,
		metrics:  m,
		clock:    clk,
		logger:   logger,
		manual:   semaphore.NewWeighted(1),
	}
}

func (s *backupService) acquire() error {
	if !s.manual.TryAcquire(1) {
		return code.ErrorSyncInProgress
	}
	return nil
}

func (s *backupService) fail(err error) error {
	var c *code.Code
	if errors.As(err, &c) {
		s.notifier.Notify(ui.KindError, c.Msg())
	} else {
		s.notifier.Notify(ui.KindError, err.Error())
	}
	return err
}

func (s *backupService) UploadToRemote(ctx context.Context, uid string, confirm ui.Confirmer) (*UploadResult, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.manual.Release(1)

	started := time.Now()
	outcome := metrics.OutcomeFailure
	defer func() { s.metrics.Observe(actionUpload, modeManual, string(domain.LocationWebDAV), outcome, started) }()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	if !settings.Remote.Configured() {
		return nil, s.fail(code.ErrorRemoteNotConfigured)
	}

	client := s.remote(settings.Remote)
	name := snapshot.SyncFileName(uid)
	log := s.logger.With(zap.String(logger.FieldUID, uid), zap.String(logger.FieldAction, actionUpload), zap.String(logger.FieldFileKey, name))

	// 1. 先读取云端修改时间，再生成本地快照
	remoteMod := client.GetFileLastModified(ctx, name)

	notes, folders, err := s.dataset.Load(ctx, uid)
	if err != nil {
		log.Error("load local data failed", zap.Error(err))
		return nil, s.fail(code.ErrorSnapshotEncode.WithDetails(err.Error()))
	}
	data, snap, err := s.codec.Serialize(notes, folders)
	if err != nil {
		return nil, s.fail(code.ErrorSnapshotEncode.WithDetails(err.Error()))
	}

	result := &UploadResult{SnapshotTime: snap.CapturedAt(), File: name}

	// 2. 冲突检查：云端严格新于本地快照时需要用户确认
	if remoteMod != nil {
		result.RemoteModified = *remoteMod
		if remoteMod.UnixMilli() > snap.Timestamp {
			result.Conflict = true
			s.metrics.Conflict()
			log.Info("remote backup is newer than local snapshot",
				zap.Time("remoteModified", *remoteMod), zap.Time("snapshotTime", result.SnapshotTime))

			question := fmt.Sprintf(code.PromptConflictMessage.GetMessage(), remoteMod.Local().Format(time.DateTime))
			if confirm == nil || !confirm.Confirm(ctx, code.PromptConflictTitle.GetMessage(), question) {
				outcome = metrics.OutcomeDeclined
				s.notifier.Notify(ui.KindInfo, code.SuccessUploadCancelled.Msg())
				return result, nil
			}
		}
	}

	// 3. 上传，不自动重试
	if err := client.Put(ctx, name, data); err != nil {
		log.Warn("upload failed", zap.Error(err))
		return result, s.fail(remoteError(err, code.ErrorRemoteUploadFailed))
	}

	result.Uploaded = true
	outcome = metrics.OutcomeSuccess
	log.Info("backup uploaded", zap.Int(logger.FieldSize, len(data)), zap.Duration(logger.FieldDuration, time.Since(started)))
	s.notifier.Notify(ui.KindSuccess, code.SuccessUploaded.Msg())
	return result, nil
}

func (s *backupService) RestoreFromRemote(ctx context.Context, uid string, opts RestoreOptions, confirm ui.Confirmer) (*RestoreResult, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.manual.Release(1)

	started := time.Now()
	outcome := metrics.OutcomeFailure
	defer func() {
		s.metrics.Observe(actionRestore, modeManual, string(domain.LocationWebDAV), outcome, started)
	}()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	if !settings.Remote.Configured() {
		return nil, s.fail(code.ErrorRemoteNotConfigured)
	}

	name := snapshot.SyncFileName(uid)
	if opts.AutoBackup {
		name = snapshot.AutoBackupFileName(uid)
	}
	result := &RestoreResult{File: name}
	log := s.logger.With(zap.String(logger.FieldUID, uid), zap.String(logger.FieldAction, actionRestore), zap.String(logger.FieldFileKey, name))

	// 恢复会覆盖本地全部数据，必须先确认
	if confirm == nil || !confirm.Confirm(ctx, code.PromptRestoreTitle.GetMessage(), code.PromptRestoreMessage.GetMessage()) {
		outcome = metrics.OutcomeDeclined
		s.notifier.Notify(ui.KindInfo, code.SuccessRestoreCancelled.Msg())
		return result, nil
	}

	data, err := s.remote(settings.Remote).Get(ctx, name)
	if err != nil {
		log.Warn("download failed", zap.Error(err))
		return result, s.fail(remoteError(err, code.ErrorRestoreFailed))
	}

	snap, err := s.codec.Deserialize(data)
	if err != nil {
		log.Warn("remote backup is malformed", zap.Error(err))
		return result, s.fail(err)
	}
	normalizeIDs(snap)

	if err := s.dataset.ReplaceAll(ctx, uid, snap.Notes, snap.Folders); err != nil {
		log.Error("replace local data failed", zap.Error(err))
		return result, s.fail(code.ErrorRestoreFailed.WithDetails(err.Error()))
	}
	if err := s.library.Reload(ctx, uid); err != nil {
		log.Error("reload after restore failed", zap.Error(err))
		return result, s.fail(code.ErrorRestoreFailed.WithDetails(err.Error()))
	}

	result.Restored = true
	result.Notes = len(snap.Notes)
	result.Folders = len(snap.Folders)
	result.SnapshotTime = snap.CapturedAt()
	result.Newer = snap.Newer
	outcome = metrics.OutcomeSuccess
	log.Info("restore complete",
		zap.Int("notes", result.Notes), zap.Int("folders", result.Folders),
		zap.String("version", snap.Version), zap.Duration(logger.FieldDuration, time.Since(started)))
	s.notifier.Notify(ui.KindSuccess, code.SuccessRestored.Msg())
	return result, nil
}

func (s *backupService) RunScheduledBackup(ctx context.Context, uid string) (bool, error) {
	started := time.Now()
	now := s.clock.Now()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return false, err
	}
	dest := string(settings.Location)
	outcome := metrics.OutcomeFailure
	defer func() { s.metrics.Observe(actionBackup, modeScheduled, dest, outcome, started) }()

	name := snapshot.AutoBackupFileName(uid)
	log := s.logger.With(zap.String(logger.FieldUID, uid), zap.String(logger.FieldAction, actionBackup),
		zap.String(logger.FieldMode, modeScheduled), zap.String(logger.FieldDestination, dest))

	// 远端未配置时静默跳过
	if settings.Location == domain.LocationWebDAV && !settings.Remote.Configured() {
		outcome = metrics.OutcomeSkipped
		log.Warn("auto backup skipped: WebDAV not configured")
		return false, nil
	}

	notes, folders, err := s.dataset.Load(ctx, uid)
	if err != nil {
		return false, code.ErrorSnapshotEncode.WithDetails(err.Error())
	}
	data, _, err := s.codec.SerializeIndent(notes, folders)
	if err != nil {
		return false, code.ErrorSnapshotEncode.WithDetails(err.Error())
	}

	switch {
	case settings.Location == domain.LocationWebDAV:
		client := s.remote(settings.Remote)
		if !client.CheckConnection(ctx) {
			log.Warn("auto backup failed: WebDAV unreachable")
			return false, code.ErrorRemoteUnavailable
		}
		if !client.UploadFile(ctx, name, data) {
			log.Warn("auto backup upload failed")
			return false, code.ErrorRemoteUploadFailed
		}
		s.notifier.Notify(ui.KindSuccess, code.SuccessAutoBackupRemote.Msg())

	case s.fs != nil && settings.LocalPath != "":
		path, err := s.fs.WriteFile(settings.LocalPath, name, data)
		if err != nil {
			// 用户唯一的备份目标写入失败，需要提示
			log.Error("auto backup write failed", zap.String(logger.FieldPath, settings.LocalPath), zap.Error(err))
			return false, s.fail(code.ErrorLocalWrite.WithDetails(err.Error()))
		}
		log.Info("auto backup written", zap.String(logger.FieldPath, path))
		s.notifier.Notify(ui.KindSuccess, code.SuccessAutoBackupLocal.Msg()+": "+path)

	default:
		// 浏览器环境：交给页面下载，可能被浏览器拦截
		s.download.Offer(name, data)
		log.Info("auto backup offered for download")
		s.notifier.Notify(ui.KindSuccess, code.SuccessAutoBackupOffer.Msg())
	}

	if err := s.settings.RecordBackup(ctx, now); err != nil {
		log.Error("record last backup time failed", zap.Error(err))
		return false, err
	}
	s.metrics.BackupRecorded(now)
	outcome = metrics.OutcomeSuccess
	log.Info("auto backup done", zap.Int(logger.FieldSize, len(data)), zap.Duration(logger.FieldDuration, time.Since(started)))
	return true, nil
}

func (s *backupService) Export(ctx context.Context, uid string) (string, []byte, error) {
	started := time.Now()
	outcome := metrics.OutcomeFailure
	defer func() { s.metrics.Observe(actionExport, modeManual, string(domain.LocationLocal), outcome, started) }()

	notes, folders, err := s.dataset.Load(ctx, uid)
	if err != nil {
		return "", nil, code.ErrorExportFailed.WithDetails(err.Error())
	}
	data, snap, err := s.codec.SerializeIndent(notes, folders)
	if err != nil {
		return "", nil, code.ErrorExportFailed.WithDetails(err.Error())
	}
	outcome = metrics.OutcomeSuccess
	return snapshot.ExportFileName(uid, snap.CapturedAt()), data, nil
}

func (s *backupService) ExportToDir(ctx context.Context, uid, dir string) (string, error) {
	if dir == "" {
		return "", s.fail(code.ErrorLocalPathUnset)
	}
	if s.fs == nil {
		return "", s.fail(code.ErrorExportFailed.WithDetails("no file system access in this environment"))
	}
	abs, err := s.fs.SelectDirectory(dir)
	if err != nil {
		return "", s.fail(code.ErrorExportFailed.WithDetails(err.Error()))
	}
	name, data, err := s.Export(ctx, uid)
	if err != nil {
		return "", s.fail(err)
	}
	path, err := s.fs.WriteFile(abs, name, data)
	if err != nil {
		return "", s.fail(code.ErrorExportFailed.WithDetails(err.Error()))
	}
	s.logger.Info("export written", zap.String(logger.FieldUID, uid), zap.String(logger.FieldPath, path))
	s.notifier.Notify(ui.KindSuccess, code.SuccessExported.Msg()+": "+path)
	return path, nil
}

func (s *backupService) Import(ctx context.Context, uid string, data []byte) (*RestoreResult, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.manual.Release(1)

	started := time.Now()
	outcome := metrics.OutcomeFailure
	defer func() { s.metrics.Observe(actionImport, modeManual, string(domain.LocationLocal), outcome, started) }()

	snap, err := s.codec.Deserialize(data)
	if err != nil {
		return nil, s.fail(err)
	}
	normalizeIDs(snap)

	if err := s.dataset.Merge(ctx, uid, snap.Notes, snap.Folders); err != nil {
		s.logger.Error("import merge failed", zap.String(logger.FieldUID, uid), zap.Error(err))
		return nil, s.fail(code.ErrorImportFailed.WithDetails(err.Error()))
	}
	if err := s.library.Reload(ctx, uid); err != nil {
		return nil, s.fail(code.ErrorImportFailed.WithDetails(err.Error()))
	}

	outcome = metrics.OutcomeSuccess
	s.logger.Info("import complete", zap.String(logger.FieldUID, uid),
		zap.Int("notes", len(snap.Notes)), zap.Int("folders", len(snap.Folders)))
	s.notifier.Notify(ui.KindSuccess, code.SuccessImported.Msg())
	return &RestoreResult{
		Restored:     true,
		Notes:        len(snap.Notes),
		Folders:      len(snap.Folders),
		SnapshotTime: snap.CapturedAt(),
		Newer:        snap.Newer,
	}, nil
}

func (s *backupService) TestConnection(ctx context.Context, cfg webdav.Config) error {
	if !cfg.Configured() {
		return code.ErrorRemoteNotConfigured
	}
	if err := s.remote(cfg).Probe(ctx); err != nil {
		s.logger.Info("connection test failed", zap.String(logger.FieldURL, cfg.URL), zap.Error(err))
		return remoteError(err, code.ErrorRemoteUnavailable)
	}
	return nil
}

// normalizeIDs gives records without an id a fresh one so they can be stored.
func normalizeIDs(snap *snapshot.Snapshot) {
	for i := range snap.Notes {
		if snap.Notes[i].ID == "" {
			snap.Notes[i].ID = uuid.NewString()
		}
	}
	for i := range snap.Folders {
		if snap.Folders[i].ID == "" {
			snap.Folders[i].ID = uuid.NewString()
		}
	}
}
