package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/haierkeys/bento-note-sync/pkg/util"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// defaultTokenSecret is replaced by a random secret when the default config is written.
const defaultTokenSecret = "bento-note-sync-relay"

// resolveConfig returns the config file to use, writing the default one on first start.
// resolveConfig 查找配置文件，找不到时写入默认配置
func resolveConfig(path string) (string, error) {
	if len(path) > 0 {
		return path, nil
	}
	for _, candidate := range []string{"config/config-dev.yaml", "config.yaml", "config/config.yaml"} {
		if util.FileExists(candidate) {
			return candidate, nil
		}
	}

	bootstrapLogger.Warn("config file not found, creating default config")
	path = "config/config.yaml"

	content := strings.Replace(configDefault, defaultTokenSecret, randomSecret(), 1)
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return "", errors.Wrap(err, "config file auto create error")
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", errors.Wrap(err, "config file auto create writing error")
	}
	bootstrapLogger.Info("config file auto create successfully", zap.String("path", path))
	return path, nil
}

func randomSecret() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return defaultTokenSecret
	}
	return hex.EncodeToString(b)
}
