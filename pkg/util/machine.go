package util

import (
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	installationID      string
	installationIDMutex sync.Mutex
)

// InstallationID returns a stable, app-scoped hash of the machine id so the raw
// id never leaves the host. Empty when the platform exposes no machine id.
// InstallationID 返回基于机器 ID 的应用级哈希标识，获取失败返回空字符串
func InstallationID(appID string) string {
	installationIDMutex.Lock()
	defer installationIDMutex.Unlock()

	if installationID != "" {
		return installationID
	}
	id, err := machineid.ProtectedID(appID)
	if err != nil || id == "" {
		return ""
	}
	if len(id) > 16 {
		id = id[:16]
	}
	installationID = id
	return installationID
}
