// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/bento-note-sync/internal/dao"
	"github.com/haierkeys/bento-note-sync/pkg/util"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"
	"github.com/haierkeys/bento-note-sync/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Platform 运行环境
const (
	// PlatformDesktop has a privileged file system
	PlatformDesktop = "desktop"
	// PlatformBrowser falls back to download offers for local backups
	PlatformBrowser = "browser"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string             `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig       `yaml:"server"`
	Log      LogConfig          `yaml:"log"`
	Database dao.DatabaseConfig `yaml:"database"`
	App      AppSettings        `yaml:"app"`
	Proxy    ProxyConfig        `yaml:"proxy"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"info"`
	// File 日志文件路径，为空时只输出到 stderr
	File string `yaml:"file" default:"storage/logs/bento.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production"`
}

// ServerConfig 本地接口配置
type ServerConfig struct {
	// RunMode gin 运行模式
	RunMode string `yaml:"run-mode" default:"release" validate:"oneof=debug release test"`
	// HttpPort 本地接口监听地址，只应绑定回环地址
	HttpPort string `yaml:"http-port" default:"127.0.0.1:9100"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"120"`
}

// AppSettings 应用设置
type AppSettings struct {
	// UID 当前用户，备份文件名中使用
	UID string `yaml:"uid" default:"default" validate:"required,excludesall=/"`
	// Language en | zh_cn
	Language string `yaml:"language" default:"en"`
	// Platform desktop | browser
	Platform string `yaml:"platform" default:"desktop" validate:"oneof=desktop browser"`
	// Transport direct | relay
	Transport string `yaml:"transport" default:"direct" validate:"oneof=direct relay"`
	// InsecureSkipVerify 直连时跳过证书校验
	InsecureSkipVerify bool `yaml:"insecure-skip-verify"`
	// StartupDelay 启动后首次检查的延迟
	StartupDelay string `yaml:"startup-delay" default:"5s"`
	// CheckInterval 自动备份检查周期，应远小于最短备份间隔
	CheckInterval string `yaml:"check-interval" default:"1m"`
	// RequestTimeout 每次 WebDAV 请求的超时
	RequestTimeout string `yaml:"request-timeout" default:"20s"`
	// NotifyBuffer 保留的最近通知条数
	NotifyBuffer int `yaml:"notify-buffer" default:"50"`

	WriteQueue writequeue.Config `yaml:"write-queue"`
}

// ProxyConfig 中继（特权代理）配置
type ProxyConfig struct {
	// Listen 中继服务监听地址
	Listen string `yaml:"listen" default:"127.0.0.1:9101"`
	// URL 客户端使用的中继地址
	URL string `yaml:"url" default:"http://127.0.0.1:9101/relay" validate:"omitempty,url"`
	// TokenSecret HS256 签名密钥
	TokenSecret string `yaml:"token-secret" default:"bento-note-sync-relay"`
	// TokenExpiry Token 过期时间
	TokenExpiry string `yaml:"token-expiry" default:"1h"`
	// RateLimit 每秒允许的请求数，负数表示不限制
	RateLimit int `yaml:"rate-limit" default:"20"`
	// RateBurst 令牌桶容量
	RateBurst int `yaml:"rate-burst" default:"40"`
	// InsecureSkipVerify 中继转发时跳过证书校验
	InsecureSkipVerify bool `yaml:"insecure-skip-verify"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	c, err := ParseConfig(file)
	if err != nil {
		return nil, realpath, err
	}
	c.File = realpath
	return c, realpath, nil
}

// ParseConfig parses yaml content on top of the defaults.
// ParseConfig 解析配置内容并填充默认值
func ParseConfig(content []byte) (*AppConfig, error) {
	c := new(AppConfig)

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "set default config failed")
	}

	if err := yaml.Unmarshal(content, c); err != nil {
		return nil, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "re-set default config failed")
	}

	if err := validator.New().Struct(c); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return c, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	if err := util.WriteFileAtomic(c.File, data, 0o644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetStartupDelay 首次检查延迟
func (c *AppConfig) GetStartupDelay() time.Duration {
	return util.MustParseDuration(c.App.StartupDelay, 5*time.Second)
}

// GetCheckInterval 自动备份检查周期
func (c *AppConfig) GetCheckInterval() time.Duration {
	return util.MustParseDuration(c.App.CheckInterval, time.Minute)
}

// GetRequestTimeout WebDAV 单次请求超时
func (c *AppConfig) GetRequestTimeout() time.Duration {
	return util.MustParseDuration(c.App.RequestTimeout, webdav.DefaultTimeout)
}

// GetReadTimeout 本地接口读取超时
func (c *AppConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeout) * time.Second
}

// GetWriteTimeout 本地接口写入超时
func (c *AppConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeout) * time.Second
}

// GetTokenExpiry 中继 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	return util.MustParseDuration(c.Proxy.TokenExpiry, time.Hour)
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueue.QueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueue.QueueCapacity
	}
	if c.App.WriteQueue.WriteTimeout > 0 {
		cfg.WriteTimeout = c.App.WriteQueue.WriteTimeout
	}
	if c.App.WriteQueue.IdleTimeout > 0 {
		cfg.IdleTimeout = c.App.WriteQueue.IdleTimeout
	}

	return cfg
}

// TransportMode 远端请求方式
func (c *AppConfig) TransportMode() webdav.Mode {
	return webdav.Mode(c.App.Transport)
}

// IsDesktop 是否具备特权文件系统
func (c *AppConfig) IsDesktop() bool {
	return c.App.Platform == PlatformDesktop
}
