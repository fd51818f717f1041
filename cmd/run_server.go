package cmd

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	internalApp "github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/dao"
	"github.com/haierkeys/bento-note-sync/internal/routers"
	"github.com/haierkeys/bento-note-sync/internal/task"
	"github.com/haierkeys/bento-note-sync/pkg/logger"
	"github.com/haierkeys/bento-note-sync/pkg/safe_close"
	"github.com/haierkeys/bento-note-sync/pkg/util"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Server 一次运行实例：本地接口、可选中继、自动备份调度与 App Container
type Server struct {
	logger      *zap.Logger
	config      *internalApp.AppConfig
	httpServer  *http.Server
	relayServer *http.Server
	sc          *safe_close.SafeClose
	app         *internalApp.App
}

// NewServer loads the config and starts everything; stop it with sc.SendCloseSignal.
func NewServer(runEnv *runFlags) (*Server, error) {
	appConfig, configRealpath, err := internalApp.LoadConfig(runEnv.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if runEnv.port != "" {
		appConfig.Server.HttpPort = runEnv.port
	}
	if runEnv.runMode != "" {
		appConfig.Server.RunMode = runEnv.runMode
	}
	gin.SetMode(appConfig.Server.RunMode)

	a, lg, err := openApp(appConfig)
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger: lg,
		config: appConfig,
		sc:     safe_close.NewSafeClose(),
		app:    a,
	}

	// 启动调度器
	initScheduler(s)

	s.logger.Warn(fmt.Sprintf("%s v%s\nGit: %s\nBuildTime: %s", internalApp.Name, internalApp.Version, internalApp.GitTag, internalApp.BuildTime))
	s.logger.Warn("config loaded", zap.String("path", configRealpath))

	if httpAddr := appConfig.Server.HttpPort; len(httpAddr) > 0 {
		s.logger.Warn("api_router", zap.String("config.server.HttpPort", httpAddr))
		s.httpServer = routers.NewServer(a, routers.NewRouter(a))
		s.serve("api", s.httpServer)
	}

	// 中继模式下同时提供中继服务
	if appConfig.TransportMode() == webdav.ModeRelay && len(appConfig.Proxy.Listen) > 0 {
		s.logger.Warn("relay_router", zap.String("config.proxy.listen", appConfig.Proxy.Listen))
		if appConfig.Proxy.TokenSecret == defaultTokenSecret {
			s.logger.Warn("proxy.token-secret is the default value, change it before exposing the relay")
		}
		s.relayServer = newRelayServer(a)
		s.serve("relay", s.relayServer)
	}

	// 注册 App Container 的优雅关闭
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()

		if err := s.app.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown app container", zap.Error(err))
		} else {
			s.logger.Info("App container shutdown gracefully")
		}
	})

	return s, nil
}

// serve runs srv until the close signal, or raises the close signal when it fails.
func (s *Server) serve(name string, srv *http.Server) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.ListenAndServe()
		}()
		select {
		case err := <-errChan:
			s.logger.Error(name+" service err", zap.Error(err))
			s.sc.SendCloseSignal(err)
		case <-closeSignal:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// 停止HTTP服务器
			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error(name+" service shutdown error", zap.Error(err))
			}
		}
	})
}

func initScheduler(s *Server) {
	// 创建任务管理器
	manager := task.NewManager(s.app, s.sc)

	// 注册所有任务(业务层控制)
	if err := manager.RegisterTasks(); err != nil {
		s.logger.Error("failed to register tasks", zap.Error(err))
		return
	}

	// 启动任务调度器
	manager.Start()
}

// openApp builds logger, storage directories, database and App Container from cfg.
// openApp 初始化日志、存储目录、数据库与 App Container
func openApp(cfg *internalApp.AppConfig, opts ...internalApp.Option) (*internalApp.App, *zap.Logger, error) {
	if err := initStorageWithConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("initStorage: %w", err)
	}

	lg, err := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Production: cfg.Log.Production,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initLogger: %w", err)
	}

	db, err := dao.NewDBEngine(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("initDatabase: %w", err)
	}

	a, err := internalApp.NewApp(cfg, lg, db, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create app container: %w", err)
	}
	return a, lg, nil
}

// initStorageWithConfig 初始化存储目录
func initStorageWithConfig(cfg *internalApp.AppConfig) error {
	dirs := []string{filepath.Dir(cfg.Log.File)}
	if cfg.Database.Type == "sqlite" || cfg.Database.Type == "" {
		dirs = append(dirs, filepath.Dir(cfg.Database.Path))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := util.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetApp 获取 App Container
func (s *Server) GetApp() *internalApp.App {
	return s.app
}
