package webdav

import (
	"crypto/tls"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/studio-b12/gowebdav"
)

// RemoteFile 远端文件信息
type RemoteFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Lister enumerates backup files in the base collection. It is only used by
// operator tooling, never on the sync path.
// Lister 列出远端备份文件，仅用于运维命令
type Lister struct {
	client *gowebdav.Client
}

func NewLister(cfg Config, insecure bool, timeout time.Duration) *Lister {
	c := gowebdav.NewClient(strings.TrimRight(cfg.URL, "/"), cfg.Username, cfg.Password)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	if insecure {
		c.SetTransport(&http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}) //nolint:gosec
	}
	return &Lister{client: c}
}

// List returns the files whose name starts with prefix, newest first.
func (l *Lister) List(prefix string) ([]RemoteFile, error) {
	infos, err := l.client.ReadDir("/")
	if err != nil {
		return nil, errors.Wrap(err, "webdav list")
	}
	files := make([]RemoteFile, 0, len(infos))
	for _, fi := range infos {
		if fi.IsDir() || !strings.HasPrefix(fi.Name(), prefix) {
			continue
		}
		files = append(files, RemoteFile{Name: fi.Name(), Size: fi.Size(), Modified: fi.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Modified.After(files[j].Modified) })
	return files, nil
}
