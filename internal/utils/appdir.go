package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "StickyNotes"

// GetAppDataDir 返回应用数据根目录
// Windows: %APPDATA%\StickyNotes
// macOS: ~/Library/Application Support/StickyNotes
// Linux: $XDG_DATA_HOME/stickynotes 或 ~/.local/share/stickynotes
func GetAppDataDir() string {
	switch runtime.GOOS {
	case "windows":
		baseDir := os.Getenv("APPDATA")
		if baseDir == "" {
			baseDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(baseDir, appDirName)

	case "darwin":
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "Library", "Application Support", appDirName)

	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			return filepath.Join(xdgDataHome, "stickynotes")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "share", "stickynotes")

	default:
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".stickynotes")
	}
}

// GetDataDir 数据库目录
func GetDataDir() string {
	return filepath.Join(GetAppDataDir(), "data")
}

// GetLogDir 日志目录
func GetLogDir() string {
	return filepath.Join(GetAppDataDir(), "logs")
}

// EnsureAppDirs 创建应用所需的目录
func EnsureAppDirs() error {
	for _, dir := range []string{GetAppDataDir(), GetDataDir(), GetLogDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录 %s 失败: %w", dir, err)
		}
	}
	return nil
}
