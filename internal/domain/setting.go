package domain

import (
	"time"

	"github.com/haierkeys/bento-note-sync/pkg/webdav"
)

// BackupInterval 自动备份周期
type BackupInterval string

const (
	IntervalOff BackupInterval = "off"
	Interval15m BackupInterval = "15m"
	Interval1h  BackupInterval = "1h"
	Interval6h  BackupInterval = "6h"
	Interval12h BackupInterval = "12h"
	Interval24h BackupInterval = "24h"
)

var intervalDurations = map[BackupInterval]time.Duration{
	Interval15m: 15 * time.Minute,
	Interval1h:  time.Hour,
	Interval6h:  6 * time.Hour,
	Interval12h: 12 * time.Hour,
	Interval24h: 24 * time.Hour,
}

// Duration returns 0 for off or an unknown value.
func (i BackupInterval) Duration() time.Duration {
	return intervalDurations[i]
}

// Enabled reports whether scheduled backups are armed.
func (i BackupInterval) Enabled() bool {
	return i.Duration() > 0
}

// Intervals lists every accepted value, off first.
func Intervals() []BackupInterval {
	return []BackupInterval{IntervalOff, Interval15m, Interval1h, Interval6h, Interval12h, Interval24h}
}

// BackupLocation 备份目标
type BackupLocation string

const (
	LocationLocal  BackupLocation = "local"
	LocationWebDAV BackupLocation = "webdav"
)

// BackupSettings is the per-installation backup configuration.
// BackupSettings 备份配置，按安装实例保存，不属于任何一条笔记
type BackupSettings struct {
	Interval       BackupInterval `json:"interval" validate:"required,oneof=off 15m 1h 6h 12h 24h"`
	Location       BackupLocation `json:"location" validate:"required,oneof=local webdav"`
	Remote         webdav.Config  `json:"webdav"`
	LocalPath      string         `json:"localPath"`
	LastBackupTime int64          `json:"lastBackupTime" validate:"gte=0"`
}

// DefaultBackupSettings 默认配置：关闭自动备份，目标为 WebDAV
func DefaultBackupSettings() BackupSettings {
	return BackupSettings{
		Interval: IntervalOff,
		Location: LocationWebDAV,
	}
}

// Redacted returns a copy safe to log or return to a client.
func (s BackupSettings) Redacted() BackupSettings {
	if s.Remote.Password != "" {
		s.Remote.Password = "******"
	}
	return s
}
