package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses durations like "30s", "15m", "2h", "7d"; a bare number means seconds.
// ParseDuration 解析持续时间，支持 "d" 天后缀，纯数字默认为秒
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	if _, err := strconv.Atoi(s); err == nil {
		s += "s"
	}
	return time.ParseDuration(s)
}

// MustParseDuration returns fallback when s is empty or invalid.
func MustParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// DateStamp formats t as YYYY-MM-DD in t's location.
// DateStamp 按 YYYY-MM-DD 格式化日期
func DateStamp(t time.Time) string {
	return t.Format("2006-01-02")
}

// MillisToTime converts epoch milliseconds; zero maps to the zero time.
func MillisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
