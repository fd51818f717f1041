package webdav

import (
	"context"
	"fmt"
	"net/http"
)

// Request is one HTTP exchange as seen by a transport.
type Request struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// Response is what every transport hands back, whichever path carried the request.
// Response 与传输通道无关的统一响应
type Response struct {
	OK         bool              `json:"ok"`
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers,omitempty"`
	Text       string            `json:"text"`
}

// HTTPTransport carries a single request. It returns a non-nil error only when no
// HTTP response was obtained at all; any status code is a successful exchange.
// HTTPTransport 只有在未拿到 HTTP 响应时才返回错误
type HTTPTransport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportError means the server was never reached or the exchange broke off.
type TransportError struct {
	Method string
	URL    string
	Hint   string
	Err    error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("webdav %s %s: %v", e.Method, e.URL, e.Err)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError means the server answered with a status the operation does not accept.
type StatusError struct {
	Method     string
	URL        string
	Status     int
	StatusText string
}

func (e *StatusError) Error() string {
	text := e.StatusText
	if text == "" {
		text = http.StatusText(e.Status)
	}
	return fmt.Sprintf("webdav %s %s: unexpected status %d %s", e.Method, e.URL, e.Status, text)
}

// Mode 传输模式
type Mode string

const (
	// ModeDirect talks to the WebDAV server from this process.
	ModeDirect Mode = "direct"
	// ModeRelay hands every request to the privileged relay process.
	ModeRelay Mode = "relay"
)

// SelectTransport picks the transport for mode; an empty mode means direct.
// SelectTransport 根据运行环境选择传输通道
func SelectTransport(mode Mode, direct *DirectTransport, relay *RelayTransport) (HTTPTransport, error) {
	switch mode {
	case ModeDirect, "":
		if direct == nil {
			return nil, fmt.Errorf("direct transport not configured")
		}
		return direct, nil
	case ModeRelay:
		if relay == nil {
			return nil, fmt.Errorf("relay transport not configured")
		}
		return relay, nil
	default:
		return nil, fmt.Errorf("unknown transport mode %q", mode)
	}
}

func isOK(status int) bool {
	return status >= 200 && status < 300
}
