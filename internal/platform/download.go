package platform

import (
	"sync"
	"time"
)

// File is a document waiting to be downloaded by the browser.
type File struct {
	Name      string
	Data      []byte
	OfferedAt time.Time
}

// DownloadOffer is the browser fallback for local backups: without a privileged
// file system the snapshot is handed to the page as a download. Browsers may
// block downloads not started by a user gesture, so delivery is best effort.
// DownloadOffer 浏览器环境下的下载兜底，只保留最新一份
type DownloadOffer struct {
	mu   sync.Mutex
	file *File
}

func NewDownloadOffer() *DownloadOffer {
	return &DownloadOffer{}
}

// Offer replaces any pending file.
func (d *DownloadOffer) Offer(name string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.file = &File{Name: name, Data: data, OfferedAt: time.Now()}
}

// Take returns the pending file once.
func (d *DownloadOffer) Take() (*File, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := d.file
	d.file = nil
	return f, f != nil
}

// Pending reports the name of the waiting file, if any.
func (d *DownloadOffer) Pending() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return "", false
	}
	return d.file.Name, true
}
