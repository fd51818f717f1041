package task

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/internal/service"
	"github.com/haierkeys/bento-note-sync/pkg/clock"
	"github.com/haierkeys/bento-note-sync/pkg/logger"

	"go.uber.org/zap"
)

// State 自动备份状态
type State int

const (
	// StateIdle interval is off
	StateIdle State = iota
	// StateArmed an interval is set and ticks check whether a backup is due
	StateArmed
)

func (s State) String() string {
	if s == StateArmed {
		return "armed"
	}
	return "idle"
}

// IsDue reports whether a backup is due: never backed up, or more than one
// interval since the last one. An interval <= 0 is never due.
// IsDue 判断是否需要自动备份
func IsDue(nowMs, lastMs int64, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	return lastMs == 0 || nowMs-lastMs > interval.Milliseconds()
}

// BackupTask handles scheduled backups
// BackupTask 定时检查并执行自动备份
type BackupTask struct {
	backup       service.BackupService
	settings     service.SettingService
	clock        clock.Clock
	uid          string
	tick         time.Duration
	startupDelay time.Duration
	logger       *zap.Logger

	runMu sync.Mutex

	stateMu     sync.Mutex
	state       State
	pending     *time.Timer
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
}

// BackupTaskConfig 自动备份任务配置
type BackupTaskConfig struct {
	UID          string
	Tick         time.Duration
	StartupDelay time.Duration
}

// NewBackupTask creates a new BackupTask instance and subscribes to settings changes.
func NewBackupTask(backup service.BackupService, settings service.SettingService, clk clock.Clock, cfg BackupTaskConfig, log *zap.Logger) *BackupTask {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &BackupTask{
		backup:       backup,
		settings:     settings,
		clock:        clk,
		uid:          cfg.UID,
		tick:         cfg.Tick,
		startupDelay: cfg.StartupDelay,
		logger:       log.With(zap.String(logger.FieldTask, "BackupScheduled")),
		ctx:          ctx,
		cancel:       cancel,
	}
	t.unsubscribe = settings.Subscribe(t.onSettingsChanged)
	return t
}

// Name returns the task name
func (t *BackupTask) Name() string {
	return "BackupScheduled"
}

// LoopInterval returns the check period
func (t *BackupTask) LoopInterval() time.Duration {
	return t.tick
}

// IsStartupRun returns whether to run on startup
func (t *BackupTask) IsStartupRun() bool {
	return true
}

// StartupDelay lets local storage finish initializing first.
func (t *BackupTask) StartupDelay() time.Duration {
	return t.startupDelay
}

// State returns the state seen at the last check or settings change.
func (t *BackupTask) State() State {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.state
}

// Run checks fresh settings and performs at most one backup.
// Failures are logged and never returned, so the ticks keep going.
func (t *BackupTask) Run(ctx context.Context) error {
	if !t.runMu.TryLock() {
		return nil
	}
	defer t.runMu.Unlock()

	settings, err := t.settings.Get(ctx)
	if err != nil {
		t.logger.Warn("read backup settings failed", zap.Error(err))
		return nil
	}
	t.setState(stateOf(settings.Interval))

	interval := settings.Interval.Duration()
	if !IsDue(t.clock.Now().UnixMilli(), settings.LastBackupTime, interval) {
		return nil
	}

	t.logger.Info("auto backup due",
		zap.String(logger.FieldUID, t.uid),
		zap.String(logger.FieldInterval, string(settings.Interval)),
		zap.String(logger.FieldDestination, string(settings.Location)))

	recorded, err := t.backup.RunScheduledBackup(ctx, t.uid)
	if err != nil {
		t.logger.Warn("auto backup failed", zap.String(logger.FieldUID, t.uid), zap.Error(err))
		return nil
	}
	if !recorded {
		t.logger.Debug("auto backup skipped", zap.String(logger.FieldUID, t.uid))
	}
	return nil
}

func (t *BackupTask) onSettingsChanged(old, new domain.BackupSettings) {
	from, to := stateOf(old.Interval), stateOf(new.Interval)
	if from == to {
		return
	}
	t.setState(to)
	t.logger.Info("auto backup state changed",
		zap.Stringer("from", from), zap.Stringer("to", to),
		zap.String(logger.FieldInterval, string(new.Interval)))

	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	// 开启后延迟检查一次，不必等下一个周期
	if to == StateArmed && t.ctx.Err() == nil {
		t.pending = time.AfterFunc(t.startupDelay, func() {
			_ = t.Run(t.ctx)
		})
	}
}

func (t *BackupTask) setState(s State) {
	t.stateMu.Lock()
	t.state = s
	t.stateMu.Unlock()
}

// Close unsubscribes and cancels a pending check.
func (t *BackupTask) Close() {
	t.cancel()
	t.unsubscribe()
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

func stateOf(i domain.BackupInterval) State {
	if i.Enabled() {
		return StateArmed
	}
	return StateIdle
}

// init registers the backup task
func init() {
	RegisterWithApp(func(a *app.App) (Task, error) {
		cfg := a.Config()
		return NewBackupTask(a.BackupService, a.SettingService, a.Clock, BackupTaskConfig{
			UID:          a.UID(),
			Tick:         cfg.GetCheckInterval(),
			StartupDelay: cfg.GetStartupDelay(),
		}, a.Logger()), nil
	})
}
