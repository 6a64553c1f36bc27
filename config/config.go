package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Settings SettingsConfig `yaml:"settings"` // Settings store (notes persistence)
	Notes    NotesConfig    `yaml:"notes"`    // Note window appearance and behaviour
	Menu     MenuConfig     `yaml:"menu"`     // Note context menu appearance
	Tray     TrayConfig     `yaml:"tray"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SettingsConfig 设置存储配置
type SettingsConfig struct {
	Organization string `yaml:"organization"`  // 组织名，与 Application 一起构成存储作用域
	Application  string `yaml:"application"`   // 应用名
	Driver       string `yaml:"driver"`        // "sqlite" (modernc, 纯 Go) 或 "sqlite3" (mattn, cgo)
	DatabasePath string `yaml:"database_path"` // 数据库文件路径，默认: <appdir>/data/settings.db
}

// NotesConfig 便签窗口配置
type NotesConfig struct {
	Title           string `yaml:"title"`
	BackgroundColor string `yaml:"background_color"`
	TextColor       string `yaml:"text_color"`
	BorderColor     string `yaml:"border_color"`
	FontSize        int    `yaml:"font_size"`      // px
	Padding         int    `yaml:"padding"`        // px
	DefaultWidth    int    `yaml:"default_width"`  // 无几何信息时的默认宽度
	DefaultHeight   int    `yaml:"default_height"` // 无几何信息时的默认高度
	MinWidth        int    `yaml:"min_width"`
	MinHeight       int    `yaml:"min_height"`
}

// MenuConfig 便签右键菜单配置
type MenuConfig struct {
	BackgroundColor      string `yaml:"background_color"`
	TextColor            string `yaml:"text_color"`
	TextDisabledColor    string `yaml:"text_disabled_color"`
	HoverBackgroundColor string `yaml:"hover_background_color"`
	HoverTextColor       string `yaml:"hover_text_color"`
	BorderColor          string `yaml:"border_color"`
	SeparatorColor       string `yaml:"separator_color"`
}

type TrayConfig struct {
	Tooltip string `yaml:"tooltip"`
}

type LoggingConfig struct {
	Level           string `yaml:"level"`
	FileEnabled     bool   `yaml:"file_enabled"`     // Enable file logging
	FilePath        string `yaml:"file_path"`        // Log file path
	MaxFileSize     string `yaml:"max_file_size"`    // Max file size (e.g., "10MB")
	MaxFiles        int    `yaml:"max_files"`        // Max number of rotated files to keep
	CompressRotated bool   `yaml:"compress_rotated"` // Compress rotated log files (brotli)
}

var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses, defaults and validates YAML configuration content
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.setDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Settings.Organization == "" {
		c.Settings.Organization = "StickyNotes"
	}
	if c.Settings.Application == "" {
		c.Settings.Application = "StickyNotesApp"
	}
	if c.Settings.Driver == "" {
		c.Settings.Driver = "sqlite"
	}
	if c.Settings.DatabasePath == "" {
		c.Settings.DatabasePath = filepath.Join(getConfigAppDataDir(), "data", "settings.db")
	}

	if c.Notes.Title == "" {
		c.Notes.Title = "Sticky Note"
	}
	if c.Notes.BackgroundColor == "" {
		c.Notes.BackgroundColor = "#fdfd96"
	}
	if c.Notes.TextColor == "" {
		c.Notes.TextColor = "#000000"
	}
	if c.Notes.BorderColor == "" {
		c.Notes.BorderColor = "#ccc"
	}
	if c.Notes.FontSize == 0 {
		c.Notes.FontSize = 14
	}
	if c.Notes.Padding == 0 {
		c.Notes.Padding = 5
	}
	if c.Notes.DefaultWidth == 0 {
		c.Notes.DefaultWidth = 250
	}
	if c.Notes.DefaultHeight == 0 {
		c.Notes.DefaultHeight = 250
	}
	if c.Notes.MinWidth == 0 {
		c.Notes.MinWidth = 200
	}
	if c.Notes.MinHeight == 0 {
		c.Notes.MinHeight = 200
	}

	if c.Menu.BackgroundColor == "" {
		c.Menu.BackgroundColor = "#ffffff"
	}
	if c.Menu.TextColor == "" {
		c.Menu.TextColor = "#000000"
	}
	if c.Menu.TextDisabledColor == "" {
		c.Menu.TextDisabledColor = "#999999"
	}
	if c.Menu.HoverBackgroundColor == "" {
		c.Menu.HoverBackgroundColor = "#0078d4"
	}
	if c.Menu.HoverTextColor == "" {
		c.Menu.HoverTextColor = "#ffffff"
	}
	if c.Menu.BorderColor == "" {
		c.Menu.BorderColor = "#ccc"
	}
	if c.Menu.SeparatorColor == "" {
		c.Menu.SeparatorColor = "#dddddd"
	}

	if c.Tray.Tooltip == "" {
		c.Tray.Tooltip = "Sticky Notes"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	// Set file logging defaults
	if c.Logging.FileEnabled && c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(getConfigAppDataDir(), "logs", "app.log")
	}
	if c.Logging.MaxFileSize == "" {
		c.Logging.MaxFileSize = "10MB"
	}
	if c.Logging.MaxFiles == 0 {
		c.Logging.MaxFiles = 5
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	switch c.Settings.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unsupported settings driver: %s (expected 'sqlite' or 'sqlite3')", c.Settings.Driver)
	}

	colors := map[string]string{
		"notes.background_color":      c.Notes.BackgroundColor,
		"notes.text_color":            c.Notes.TextColor,
		"notes.border_color":          c.Notes.BorderColor,
		"menu.background_color":       c.Menu.BackgroundColor,
		"menu.text_color":             c.Menu.TextColor,
		"menu.text_disabled_color":    c.Menu.TextDisabledColor,
		"menu.hover_background_color": c.Menu.HoverBackgroundColor,
		"menu.hover_text_color":       c.Menu.HoverTextColor,
		"menu.border_color":           c.Menu.BorderColor,
		"menu.separator_color":        c.Menu.SeparatorColor,
	}
	for field, value := range colors {
		if !hexColorPattern.MatchString(value) {
			return fmt.Errorf("%s must be a hex color like #fdfd96, got %q", field, value)
		}
	}

	if c.Notes.FontSize < 0 || c.Notes.Padding < 0 {
		return fmt.Errorf("notes.font_size and notes.padding must not be negative")
	}
	if c.Notes.MinWidth < 0 || c.Notes.MinHeight < 0 {
		return fmt.Errorf("notes.min_width and notes.min_height must not be negative")
	}
	if c.Notes.DefaultWidth < c.Notes.MinWidth || c.Notes.DefaultHeight < c.Notes.MinHeight {
		return fmt.Errorf("notes default size %dx%d is smaller than minimum %dx%d",
			c.Notes.DefaultWidth, c.Notes.DefaultHeight, c.Notes.MinWidth, c.Notes.MinHeight)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported logging level: %s", c.Logging.Level)
	}
	if c.Logging.MaxFiles < 0 {
		return fmt.Errorf("logging.max_files must not be negative")
	}

	return nil
}

// EnsureConfigFile writes defaultContent to path when no config file exists yet.
// 已存在的配置文件不会被覆盖（保留用户修改）。
func EnsureConfigFile(path string, defaultContent []byte) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(defaultContent)); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// DefaultConfigPath 返回用户目录下的默认配置文件路径
func DefaultConfigPath() string {
	return filepath.Join(getConfigAppDataDir(), "config.yaml")
}

// ConfigWatcher handles automatic configuration reloading
type ConfigWatcher struct {
	configPath    string
	config        *Config
	mutex         sync.RWMutex
	watcher       *fsnotify.Watcher
	logger        *slog.Logger
	callbacks     []func(*Config)
	lastModTime   time.Time
	debounceTimer *time.Timer
}

// NewConfigWatcher creates a new configuration watcher
func NewConfigWatcher(configPath string, logger *slog.Logger) (*ConfigWatcher, error) {
	// Load initial configuration
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	cw := &ConfigWatcher{
		configPath:  configPath,
		config:      config,
		watcher:     watcher,
		logger:      logger,
		callbacks:   make([]func(*Config), 0),
		lastModTime: fileInfo.ModTime(),
	}

	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}

	go cw.watchLoop()

	return cw, nil
}

// GetConfig returns the current configuration (thread-safe)
func (cw *ConfigWatcher) GetConfig() *Config {
	cw.mutex.RLock()
	defer cw.mutex.RUnlock()
	return cw.config
}

// UpdateLogger updates the logger used by the config watcher
func (cw *ConfigWatcher) UpdateLogger(logger *slog.Logger) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	cw.logger = logger
}

// AddReloadCallback adds a callback function that will be called when config is reloaded
func (cw *ConfigWatcher) AddReloadCallback(callback func(*Config)) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

func (cw *ConfigWatcher) getLogger() *slog.Logger {
	cw.mutex.RLock()
	defer cw.mutex.RUnlock()
	return cw.logger
}

// watchLoop monitors the config file for changes
func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Write) {
				fileInfo, err := os.Stat(cw.configPath)
				if err != nil {
					cw.getLogger().Warn(fmt.Sprintf("⚠️ 无法获取配置文件信息: %v", err))
					continue
				}

				// Skip if modification time hasn't changed
				if !fileInfo.ModTime().After(cw.lastModTime) {
					continue
				}
				cw.lastModTime = fileInfo.ModTime()

				if cw.debounceTimer != nil {
					cw.debounceTimer.Stop()
				}

				// 编辑器保存时可能连续触发多次写事件
				cw.debounceTimer = time.AfterFunc(500*time.Millisecond, func() {
					logger := cw.getLogger()
					logger.Info(fmt.Sprintf("🔄 检测到配置文件变更，正在重新加载... - 文件: %s", event.Name))
					if err := cw.reloadConfig(); err != nil {
						logger.Error(fmt.Sprintf("❌ 配置文件重新加载失败: %v", err))
					} else {
						logger.Info("✅ 配置文件重新加载成功")
					}
				})
			}

			// Some editors rename files during save
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				time.Sleep(100 * time.Millisecond)
				if _, err := os.Stat(cw.configPath); err == nil {
					cw.watcher.Add(cw.configPath)
					cw.getLogger().Info(fmt.Sprintf("🔄 重新监听配置文件: %s", cw.configPath))
				}
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.getLogger().Error(fmt.Sprintf("⚠️ 配置文件监听错误: %v", err))
		}
	}
}

// reloadConfig reloads the configuration from file
func (cw *ConfigWatcher) reloadConfig() error {
	newConfig, err := LoadConfig(cw.configPath)
	if err != nil {
		return err
	}

	cw.mutex.Lock()
	oldConfig := cw.config
	cw.config = newConfig
	callbacks := make([]func(*Config), len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mutex.Unlock()

	for _, callback := range callbacks {
		callback(newConfig)
	}

	cw.logConfigChanges(oldConfig, newConfig)

	return nil
}

// logConfigChanges logs the key differences between old and new configurations
func (cw *ConfigWatcher) logConfigChanges(oldConfig, newConfig *Config) {
	logger := cw.getLogger()

	if oldConfig.Notes.BackgroundColor != newConfig.Notes.BackgroundColor {
		logger.Info("🎨 便签背景色变更",
			"old_color", oldConfig.Notes.BackgroundColor,
			"new_color", newConfig.Notes.BackgroundColor)
	}

	if oldConfig.Notes.FontSize != newConfig.Notes.FontSize {
		logger.Info("🔤 便签字号变更",
			"old_size", oldConfig.Notes.FontSize,
			"new_size", newConfig.Notes.FontSize)
	}

	if oldConfig.Settings != newConfig.Settings {
		logger.Warn("⚠️ 存储配置变更需要重启后生效",
			"old_path", oldConfig.Settings.DatabasePath,
			"new_path", newConfig.Settings.DatabasePath)
	}

	if oldConfig.Logging.Level != newConfig.Logging.Level {
		logger.Info("📝 日志级别变更（重启后生效）",
			"old_level", oldConfig.Logging.Level,
			"new_level", newConfig.Logging.Level)
	}
}

// Close stops the configuration watcher
func (cw *ConfigWatcher) Close() error {
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	return cw.watcher.Close()
}

// getConfigAppDataDir 获取应用数据目录（跨平台）
// 与 internal/utils/appdir.go 保持一致，避免循环依赖
// Windows: %APPDATA%\StickyNotes
// macOS: ~/Library/Application Support/StickyNotes
// Linux: ~/.local/share/stickynotes
func getConfigAppDataDir() string {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			baseDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(baseDir, "StickyNotes")

	case "darwin":
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "Library", "Application Support", "StickyNotes")

	case "linux":
		homeDir, _ := os.UserHomeDir()
		xdgDataHome := os.Getenv("XDG_DATA_HOME")
		if xdgDataHome != "" {
			return filepath.Join(xdgDataHome, "stickynotes")
		}
		return filepath.Join(homeDir, ".local", "share", "stickynotes")

	default:
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".stickynotes")
	}
}
