package config

import (
	"os"
	"path/filepath"
)

func IsDebug() bool {
	return os.Getenv("MEMCORE_DEBUG") == "1"
}

func GetRuntimePath() string {
	path := os.Getenv("MEMCORE_RUNTIME_PATH")
	if path == "" {
		path = ".memcore"
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}
