package util

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDir returns the per-user data directory for app, honoring
// XDG_DATA_HOME.
func DataDir(app string) string {
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, app)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", app)
	}
	return filepath.Join(home, ".local", "share", app)
}
