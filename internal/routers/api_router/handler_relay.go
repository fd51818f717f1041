package api_router

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/haierkeys/bento-note-sync/internal/middleware"
	"github.com/haierkeys/bento-note-sync/pkg/app"
	"github.com/haierkeys/bento-note-sync/pkg/logger"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// relayMethods are the only methods the relay performs.
var relayMethods = map[string]bool{
	webdav.MethodPropfind: true,
	http.MethodGet:        true,
	http.MethodPut:        true,
	http.MethodHead:       true,
	http.MethodOptions:    true,
}

// RelayHandler performs WebDAV requests for callers that cannot reach the server themselves.
// RelayHandler 中继：代替受限环境执行真实的 WebDAV 请求
type RelayHandler struct {
	transport webdav.HTTPTransport
	logger    *zap.Logger
}

// NewRelayHandler creates RelayHandler instance
func NewRelayHandler(transport webdav.HTTPTransport, logger *zap.Logger) *RelayHandler {
	return &RelayHandler{transport: transport, logger: logger}
}

// Forward answers {ok,status,statusText,headers,text} when the server answered, {error} otherwise.
// @Summary Relay a WebDAV request
// @Tags Relay
// @Security RelayToken
// @Accept json
// @Produce json
// @Param params body webdav.RelayRequest true "request"
// @Success 200 {object} webdav.RelayResponse
// @Router /relay [post]
func (h *RelayHandler) Forward(c *gin.Context) {
	req := &webdav.RelayRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		RelayError(c, http.StatusBadRequest, "invalid relay request: "+err.Error())
		return
	}
	req.Method = strings.ToUpper(req.Method)
	if !relayMethods[req.Method] {
		RelayError(c, http.StatusBadRequest, "method not allowed: "+req.Method)
		return
	}
	if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		RelayError(c, http.StatusBadRequest, "invalid url")
		return
	}

	caller := ""
	if claims := app.GetRelayClaims(c); claims != nil {
		caller = claims.InstallationID
	}

	resp, err := h.transport.Do(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("relay request failed",
			zap.String(logger.FieldMethod, req.Method),
			zap.String(logger.FieldURL, req.URL),
			zap.String("caller", caller),
			zap.String("trace-id", middleware.GetTraceIDFromGin(c)),
			zap.Error(err))
		RelayError(c, http.StatusBadGateway, err.Error())
		return
	}

	h.logger.Debug("relay request",
		zap.String(logger.FieldMethod, req.Method),
		zap.String(logger.FieldURL, req.URL),
		zap.Int(logger.FieldStatus, resp.Status),
		zap.String("caller", caller))
	c.JSON(http.StatusOK, webdav.RelayResponse{Response: *resp})
}

// RelayError answers with the {error} shape the relay transport understands.
func RelayError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, webdav.RelayResponse{Error: msg})
}
