// Package platform holds the capabilities that depend on where the app runs:
// a privileged file system on the desktop, a download offer in the browser.
package platform

import (
	"path/filepath"
	"strings"

	"github.com/haierkeys/bento-note-sync/pkg/util"

	"github.com/pkg/errors"
)

// FileSystem is the privileged file-write capability of the desktop shell.
// FileSystem 桌面端特权文件写入能力
type FileSystem interface {
	// SelectDirectory validates dir (creating it when missing) and returns its absolute path.
	SelectDirectory(dir string) (string, error)
	// WriteFile writes data to dir/name, replacing any previous file.
	WriteFile(dir, name string, data []byte) (string, error)
}

// LocalFS writes to the host file system.
type LocalFS struct{}

func NewLocalFS() *LocalFS {
	return &LocalFS{}
}

func (LocalFS) SelectDirectory(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", errors.New("directory is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(err, "resolve directory")
	}
	if err := util.EnsureDir(abs); err != nil {
		return "", errors.Wrap(err, "prepare directory")
	}
	return abs, nil
}

func (LocalFS) WriteFile(dir, name string, data []byte) (string, error) {
	if dir == "" {
		return "", errors.New("directory is empty")
	}
	if name != filepath.Base(name) {
		return "", errors.Errorf("invalid file name %q", name)
	}
	path := filepath.Join(dir, name)
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}
