package routers

import (
	"net/http"

	"github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/middleware"
	"github.com/haierkeys/bento-note-sync/internal/routers/api_router"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 本地接口：设置界面、手动同步、下载兜底与指标
func NewRouter(appContainer *app.App) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()
	log := appContainer.Logger()

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddlewareWithConfig(middleware.DefaultTraceIDHeader)) // Trace ID 中间件
		api.Use(middleware.LangWithDefault(cfg.App.Language))
		api.Use(middleware.AccessLogWithLogger(log))
		api.Use(middleware.RecoveryWithLogger(log, middleware.RejectWithResponse))

		// 创建 Handlers（注入 App Container）
		backupHandler := api_router.NewBackupHandler(appContainer)
		settingHandler := api_router.NewSettingHandler(appContainer)
		systemHandler := api_router.NewSystemHandler(appContainer)

		api.GET("/health", systemHandler.Health)
		api.GET("/version", systemHandler.Version)
		api.GET("/notifications", systemHandler.Notifications)
		api.GET("/library", systemHandler.Library)
		api.POST("/note/unlock", systemHandler.Unlock)

		backup := api.Group("/backup")
		backup.GET("/settings", settingHandler.Get)
		backup.POST("/settings", settingHandler.Update)
		backup.POST("/connection", backupHandler.Connection)
		backup.POST("/upload", backupHandler.Upload)
		backup.POST("/restore", backupHandler.Restore)
		backup.GET("/export", backupHandler.Export)
		backup.POST("/import", backupHandler.Import)
		backup.GET("/download", backupHandler.Download)
	}

	// prom监控
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(appContainer.Registry, promhttp.HandlerOpts{})))

	if cfg.Server.RunMode == gin.DebugMode {
		registerPprof(r)
	}

	r.NoRoute(middleware.NoFound(middleware.RejectWithResponse))

	return r
}

// NewServer wraps the router in an http.Server with the configured timeouts.
func NewServer(appContainer *app.App, handler http.Handler) *http.Server {
	cfg := appContainer.Config()
	return &http.Server{
		Addr:           cfg.Server.HttpPort,
		Handler:        handler,
		ReadTimeout:    cfg.GetReadTimeout(),
		WriteTimeout:   cfg.GetWriteTimeout(),
		MaxHeaderBytes: 1 << 20,
	}
}
