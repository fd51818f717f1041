package webdav

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// ErrNoLastModified means the multistatus body carried no usable getlastmodified.
var ErrNoLastModified = errors.New("webdav: getlastmodified missing")

// Matches <getlastmodified>, <d:getlastmodified>, <D:getlastmodified xmlns="DAV:"> and so on.
var lastModifiedRe = regexp.MustCompile(`(?is)<(?:[a-z0-9_-]+:)?getlastmodified\b[^>]*>(.*?)</(?:[a-z0-9_-]+:)?getlastmodified\s*>`)

var lastModifiedLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
	time.RFC3339,
}

// ExtractLastModified pulls getlastmodified out of a raw multistatus body.
// 不做完整 XML 解析，兼容带命名空间前缀的标签
func ExtractLastModified(body string) (time.Time, error) {
	m := lastModifiedRe.FindStringSubmatch(body)
	if m == nil {
		return time.Time{}, ErrNoLastModified
	}
	value := strings.TrimSpace(m[1])
	if value == "" {
		return time.Time{}, ErrNoLastModified
	}
	for _, layout := range lastModifiedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrNoLastModified
}
