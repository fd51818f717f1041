package routers

import (
	"net/http"
	"net/url"

	"github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/middleware"
	"github.com/haierkeys/bento-note-sync/internal/routers/api_router"
	"github.com/haierkeys/bento-note-sync/pkg/code"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"

	"github.com/gin-gonic/gin"
)

// RelayPath is the route of the relay endpoint, taken from proxy.url.
func RelayPath(relayURL string) string {
	if u, err := url.Parse(relayURL); err == nil && u.Path != "" && u.Path != "/" {
		return u.Path
	}
	return "/relay"
}

// NewRelayRouter 中继路由：Token 认证 + 限流，再由 transport 执行真实请求
func NewRelayRouter(appContainer *app.App, transport webdav.HTTPTransport) *gin.Engine {
	cfg := appContainer.Config()
	log := appContainer.Logger()

	limiter := middleware.NewLimiter(float64(cfg.Proxy.RateLimit), int64(cfg.Proxy.RateBurst), middleware.RelayCallerKey)
	handler := api_router.NewRelayHandler(transport, log)

	r := gin.New()
	r.Use(middleware.TraceMiddlewareWithConfig(middleware.DefaultTraceIDHeader))
	r.Use(middleware.AccessLogWithLogger(log))
	r.Use(middleware.RecoveryWithLogger(log, relayReject))

	// 认证前按 IP 限流，认证后按安装实例限流
	r.POST(RelayPath(cfg.Proxy.URL),
		middleware.RateLimiter(limiter, relayReject),
		middleware.RelayAuth(appContainer.TokenManager, relayReject),
		middleware.RateLimiter(limiter, relayReject),
		handler.Forward,
	)

	r.NoRoute(middleware.NoFound(relayReject))
	return r
}

func relayReject(c *gin.Context, codeObj *code.Code) {
	status := http.StatusInternalServerError
	switch codeObj.Code() {
	case code.ErrorTokenRequired.Code(), code.ErrorTokenInvalid.Code():
		status = http.StatusUnauthorized
	case code.ErrorTooManyRequest.Code():
		status = http.StatusTooManyRequests
	case code.ErrorNotFound.Code():
		status = http.StatusNotFound
	}
	api_router.RelayError(c, status, codeObj.Error())
}
