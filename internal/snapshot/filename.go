package snapshot

import (
	"time"

	"github.com/haierkeys/bento-note-sync/pkg/util"
)

const (
	filePrefix     = "bento_note_backup_"
	autoFilePrefix = "bento_note_auto_backup_"
	fileExt        = ".json"
)

// SyncFileName is the remote file used by manual upload and restore.
func SyncFileName(uid string) string {
	return filePrefix + uid + fileExt
}

// AutoBackupFileName is stable per user so every scheduled run overwrites the previous one.
// AutoBackupFileName 自动备份文件名，每次覆盖
func AutoBackupFileName(uid string) string {
	return autoFilePrefix + uid + fileExt
}

// ExportFileName embeds the export date, e.g. bento_note_backup_alice_2024-01-02.json.
func ExportFileName(uid string, t time.Time) string {
	return filePrefix + uid + "_" + util.DateStamp(t) + fileExt
}
