// Package webdav is the remote store client: the small WebDAV subset needed to
// probe, read, write and stat one backup file under a base collection.
package webdav

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/haierkeys/bento-note-sync/pkg/logger"
	"github.com/haierkeys/bento-note-sync/pkg/metrics"

	"go.uber.org/zap"
)

const (
	MethodPropfind = "PROPFIND"

	DefaultTimeout = 20 * time.Second
)

// ErrNotFound is returned by Get and Stat when the server answers 404.
var ErrNotFound = errors.New("webdav: remote file not found")

// Config 远端连接信息
type Config struct {
	URL      string `json:"url" yaml:"url" validate:"omitempty,url"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// Configured reports whether an endpoint is set.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.URL) != ""
}

// Client speaks to one endpoint with one credential pair. It never retries.
// Client 每个方法只发起一次请求，不做重试
type Client struct {
	baseURL   string
	authValue string
	transport HTTPTransport
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *metrics.Sync
}

// Option 客户端可选项
type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *metrics.Sync) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient builds the Basic header once; the password is not kept elsewhere.
func NewClient(cfg Config, transport HTTPTransport, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		authValue: "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.Username+":"+cfg.Password)),
		transport: transport,
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the collection URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) fileURL(name string) string {
	return c.baseURL + "/" + strings.TrimLeft(name, "/")
}

func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, body string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	h := map[string]string{"Authorization": c.authValue}
	for k, v := range headers {
		h[k] = v
	}

	start := time.Now()
	resp, err := c.transport.Do(ctx, &Request{Method: method, URL: url, Headers: h, Body: body})
	if err != nil {
		c.metrics.Remote(method, "transport")
		c.logger.Debug("webdav request failed",
			zap.String(logger.FieldMethod, method),
			zap.String(logger.FieldURL, url),
			zap.Duration(logger.FieldDuration, time.Since(start)),
			zap.Error(err))
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Method: method, URL: url, Err: err}
		}
		return nil, err
	}

	result := "ok"
	if !resp.OK && resp.Status != http.StatusMultiStatus {
		result = "status"
	}
	c.metrics.Remote(method, result)
	c.logger.Debug("webdav request",
		zap.String(logger.FieldMethod, method),
		zap.String(logger.FieldURL, url),
		zap.Int(logger.FieldStatus, resp.Status),
		zap.Duration(logger.FieldDuration, time.Since(start)))
	return resp, nil
}

// Probe issues PROPFIND Depth 0 on the base collection; 200 and 207 are success.
func (c *Client) Probe(ctx context.Context) error {
	resp, err := c.do(ctx, MethodPropfind, c.baseURL, map[string]string{"Depth": "0"}, "")
	if err != nil {
		return err
	}
	if resp.Status != http.StatusMultiStatus && resp.Status != http.StatusOK {
		return &StatusError{Method: MethodPropfind, URL: c.baseURL, Status: resp.Status, StatusText: resp.StatusText}
	}
	return nil
}

// Put writes content to base/name as application/json.
func (c *Client) Put(ctx context.Context, name string, content []byte) error {
	url := c.fileURL(name)
	resp, err := c.do(ctx, http.MethodPut, url, map[string]string{"Content-Type": "application/json"}, string(content))
	if err != nil {
		return err
	}
	if !resp.OK && resp.Status != http.StatusCreated && resp.Status != http.StatusNoContent {
		return &StatusError{Method: http.MethodPut, URL: url, Status: resp.Status, StatusText: resp.StatusText}
	}
	return nil
}

// Get reads base/name. A 404 yields ErrNotFound.
func (c *Client) Get(ctx context.Context, name string) ([]byte, error) {
	url := c.fileURL(name)
	resp, err := c.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if !resp.OK {
		return nil, &StatusError{Method: http.MethodGet, URL: url, Status: resp.Status, StatusText: resp.StatusText}
	}
	return []byte(resp.Text), nil
}

// Stat returns the getlastmodified property of base/name.
// A 404 yields ErrNotFound; a response without the property yields ErrNoLastModified.
func (c *Client) Stat(ctx context.Context, name string) (time.Time, error) {
	url := c.fileURL(name)
	resp, err := c.do(ctx, MethodPropfind, url, map[string]string{"Depth": "0"}, "")
	if err != nil {
		return time.Time{}, err
	}
	if resp.Status == http.StatusNotFound {
		return time.Time{}, ErrNotFound
	}
	if !resp.OK && resp.Status != http.StatusMultiStatus {
		return time.Time{}, &StatusError{Method: MethodPropfind, URL: url, Status: resp.Status, StatusText: resp.StatusText}
	}
	return ExtractLastModified(resp.Text)
}

// CheckConnection never fails: any error maps to false.
func (c *Client) CheckConnection(ctx context.Context) bool {
	return c.Probe(ctx) == nil
}

// UploadFile reports success only; network failure and rejection both read as false.
func (c *Client) UploadFile(ctx context.Context, name string, content []byte) bool {
	if err := c.Put(ctx, name, content); err != nil {
		c.logger.Warn("webdav upload failed", zap.String(logger.FieldFileKey, name), zap.Error(err))
		return false
	}
	return true
}

// DownloadFile returns nil when the file is absent or unreachable.
func (c *Client) DownloadFile(ctx context.Context, name string) []byte {
	data, err := c.Get(ctx, name)
	if err != nil {
		return nil
	}
	return data
}

// GetFileLastModified returns nil on any failure or when the property is absent.
func (c *Client) GetFileLastModified(ctx context.Context, name string) *time.Time {
	t, err := c.Stat(ctx, name)
	if err != nil {
		return nil
	}
	return &t
}
