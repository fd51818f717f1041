package webdav

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// hintNetwork mirrors what a sandboxed caller sees when the endpoint is unreachable,
// blocked by CORS or served over an untrusted certificate.
const hintNetwork = "network error: check the server address, CORS/HTTPS settings or certificate"

// DirectOptions 直连传输配置
type DirectOptions struct {
	// InsecureSkipVerify 跳过 TLS 证书校验（自签名证书的 NAS 等）
	InsecureSkipVerify bool
	// Timeout 兜底超时，调用方的 context 通常更短
	Timeout   time.Duration
	UserAgent string
}

// DirectTransport performs requests from this process with resty.
// DirectTransport 在当前进程内直接发起请求
type DirectTransport struct {
	client *resty.Client
}

func NewDirectTransport(opts DirectOptions) *DirectTransport {
	c := resty.New().
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetRetryCount(0)
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	if opts.InsecureSkipVerify {
		c.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	}
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	return &DirectTransport{client: c}
}

func (t *DirectTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	r := t.client.R().SetContext(ctx).SetHeaders(req.Headers)
	if req.Body != "" {
		r.SetBody([]byte(req.Body))
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL, Hint: networkHint(err), Err: err}
	}

	headers := make(map[string]string, len(resp.Header()))
	for k := range resp.Header() {
		headers[strings.ToLower(k)] = resp.Header().Get(k)
	}

	return &Response{
		OK:         isOK(resp.StatusCode()),
		Status:     resp.StatusCode(),
		StatusText: statusText(resp.Status()),
		Headers:    headers,
		Text:       resp.String(),
	}, nil
}

// statusText strips the numeric prefix of "207 Multi-Status".
func statusText(status string) string {
	if i := strings.IndexByte(status, ' '); i >= 0 {
		return status[i+1:]
	}
	return status
}

func networkHint(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ""
	}
	var (
		opErr   *net.OpError
		dnsErr  *net.DNSError
		certErr *tls.CertificateVerificationError
		unkAuth x509.UnknownAuthorityError
		host    x509.HostnameError
	)
	switch {
	case errors.As(err, &certErr), errors.As(err, &unkAuth), errors.As(err, &host),
		errors.As(err, &dnsErr), errors.As(err, &opErr):
		return hintNetwork
	}
	return ""
}
