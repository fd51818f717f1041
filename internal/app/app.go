// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/bento-note-sync/internal/dao"
	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/internal/platform"
	"github.com/haierkeys/bento-note-sync/internal/service"
	"github.com/haierkeys/bento-note-sync/internal/snapshot"
	"github.com/haierkeys/bento-note-sync/internal/ui"
	pkgapp "github.com/haierkeys/bento-note-sync/pkg/app"
	"github.com/haierkeys/bento-note-sync/pkg/clock"
	"github.com/haierkeys/bento-note-sync/pkg/code"
	"github.com/haierkeys/bento-note-sync/pkg/metrics"
	"github.com/haierkeys/bento-note-sync/pkg/util"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"
	"github.com/haierkeys/bento-note-sync/pkg/writequeue"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao
	Clock  clock.Clock

	// 并发控制组件
	writeQueueMgr *writequeue.Manager

	// Repository 层
	NoteRepo    domain.NoteRepository
	FolderRepo  domain.FolderRepository
	DatasetRepo domain.DatasetRepository
	SettingRepo domain.SettingRepository

	// Service 层
	SettingService service.SettingService
	LibraryService service.LibraryService
	BackupService  service.BackupService

	// 平台与界面协作者
	FileSystem    platform.FileSystem // nil in the browser
	Downloads     *platform.DownloadOffer
	Notifications *ui.Recent
	Notifier      ui.Notifier

	// 远端与中继
	Transport      webdav.HTTPTransport
	TokenManager   pkgapp.TokenManager
	InstallationID string

	// 指标
	Registry *prometheus.Registry
	Metrics  *metrics.Sync

	// StartTime 容器创建时间，用于健康检查
	StartTime time.Time

	// 关闭控制
	opMu       sync.Mutex
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// Option 容器可选项
type Option func(*options)

type options struct {
	notifiers []ui.Notifier
	clock     clock.Clock
	fs        platform.FileSystem
}

// WithNotifier adds a notifier next to the in-memory and log ones (e.g. the console).
func WithNotifier(n ui.Notifier) Option {
	return func(o *options) { o.notifiers = append(o.notifiers, n) }
}

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithFileSystem replaces the host file system on the desktop platform.
func WithFileSystem(fs platform.FileSystem) Option {
	return func(o *options) { o.fs = fs }
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	o := &options{clock: clock.New()}
	for _, opt := range opts {
		opt(o)
	}

	if err := code.SetGlobalDefaultLang(cfg.App.Language); err != nil {
		logger.Warn("unsupported language, using default", zap.String("language", cfg.App.Language))
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		Clock:      o.clock,
		StartTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(wqConfig, logger)

	// 初始化 DAO
	a.Dao = dao.New(db, a.writeQueueMgr, logger)

	// 指标
	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.NewSync(a.Registry)

	// 安装实例标识，仅用于 User-Agent 和中继 Token
	a.InstallationID = util.InstallationID(ID)

	a.TokenManager = pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Proxy.TokenSecret,
		Expiry:    cfg.GetTokenExpiry(),
	})

	transport, err := a.buildTransport()
	if err != nil {
		return nil, err
	}
	a.Transport = transport

	// 平台协作者
	a.Downloads = platform.NewDownloadOffer()
	if cfg.IsDesktop() {
		a.FileSystem = o.fs
		if a.FileSystem == nil {
			a.FileSystem = platform.NewLocalFS()
		}
	}
	a.Notifications = ui.NewRecent(cfg.App.NotifyBuffer)
	a.Notifier = append(ui.Multi{a.Notifications, ui.NewLogNotifier(logger)}, o.notifiers...)

	// 初始化 Repository 层
	a.NoteRepo = dao.NewNoteRepository(a.Dao)
	a.FolderRepo = dao.NewFolderRepository(a.Dao)
	a.DatasetRepo = dao.NewDatasetRepository(a.Dao)
	a.SettingRepo = dao.NewSettingRepository(a.Dao)

	// 初始化 Service 层（依赖注入）
	a.SettingService = service.NewSettingService(a.SettingRepo, logger)
	a.LibraryService = service.NewLibraryService(a.DatasetRepo, a.NoteRepo, logger)
	backup := service.NewBackupService(
		a.SettingService,
		a.LibraryService,
		a.DatasetRepo,
		snapshot.NewCodec(a.Clock),
		service.NewRemoteFactory(a.Transport, cfg.GetRequestTimeout(), logger, a.Metrics),
		a.FileSystem,
		a.Downloads,
		a.Notifier,
		a.Metrics,
		a.Clock,
		logger,
	)
	// 所有入口（接口、命令、调度）都经过跟踪，关闭时等待进行中的备份/恢复
	a.BackupService = newTrackedBackup(a, backup)

	logger.Info("App container initialized successfully",
		zap.String("platform", cfg.App.Platform),
		zap.String("transport", cfg.App.Transport),
		zap.String("uid", cfg.App.UID),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity))

	return a, nil
}

func (a *App) buildTransport() (webdav.HTTPTransport, error) {
	timeout := a.config.GetRequestTimeout()
	direct := webdav.NewDirectTransport(webdav.DirectOptions{
		InsecureSkipVerify: a.config.App.InsecureSkipVerify,
		Timeout:            timeout + 5*time.Second,
		UserAgent:          a.UserAgent(),
	})
	var relay *webdav.RelayTransport
	if a.config.Proxy.URL != "" {
		relay = webdav.NewRelayTransport(a.config.Proxy.URL, a.RelayToken, timeout+5*time.Second)
	}
	return webdav.SelectTransport(a.config.TransportMode(), direct, relay)
}

// RelayToken issues a token for this installation.
func (a *App) RelayToken() (string, error) {
	return a.TokenManager.Generate(a.InstallationID)
}

// UserAgent 远端请求使用的 User-Agent
func (a *App) UserAgent() string {
	ua := "BentoNoteSync/" + Version
	if a.InstallationID != "" {
		ua += " (" + a.InstallationID + ")"
	}
	return ua
}

// Close 释放应用容器持有的资源
func (a *App) Close() error {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// UID 当前用户
func (a *App) UID() string {
	return a.config.App.UID
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：后台操作 -> Write Queue Manager -> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	// 标记关闭，之后 TrackOperation 不再接受新操作
	a.opMu.Lock()
	select {
	case <-a.shutdownCh:
		a.opMu.Unlock()
		return nil
	default:
		close(a.shutdownCh)
	}
	a.opMu.Unlock()

	var errs []error

	// 1. 等待所有后台操作完成（进行中的备份/恢复）
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 2. 关闭 Write Queue Manager（排空所有队列）
	if a.writeQueueMgr != nil {
		if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue manager shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("write queue manager shutdown: %w", err))
		}
	}

	// 3. 关闭数据库连接
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用；关闭开始后返回 code.ErrorShuttingDown
func (a *App) TrackOperation() (func(), error) {
	a.opMu.Lock()
	defer a.opMu.Unlock()
	select {
	case <-a.shutdownCh:
		return nil, code.ErrorShuttingDown
	default:
	}
	a.wg.Add(1)
	var once sync.Once
	return func() { once.Do(a.wg.Done) }, nil
}
