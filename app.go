// app.go - Wails 应用核心结构
// 组装配置、日志、设置存储、便签服务、托盘与 UI 循环，并管理生命周期

package main

import (
	"context"
	"database/sql"
	"log/slog"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"stickynotes/config"
	"stickynotes/internal/icon"
	"stickynotes/internal/logging"
	"stickynotes/internal/notes"
	"stickynotes/internal/service"
	"stickynotes/internal/store"
	"stickynotes/internal/tray"
	"stickynotes/internal/utils"
)

const (
	// 打开数据库的超时时间
	storeOpenTimeout = 10 * time.Second
	// 退出前等待前端提交未同步编辑的最长时间
	flushTimeout = 2 * time.Second
)

// App 是 Wails 应用的核心结构
// 导出的方法（见 app_api_note.go）绑定给前端调用
type App struct {
	// Wails 上下文
	ctx context.Context

	config        *config.Config
	configWatcher *config.ConfigWatcher
	configPath    string
	logger        *slog.Logger
	logHandler    *logging.SimpleHandler

	// 设置存储 (SQLite)
	db            *sql.DB
	settingsStore store.SettingsStore
	noteService   *service.NoteService

	// 所有 Manager / Window 调用都在 loop 中串行执行
	loop    *notes.Loop
	manager *notes.Manager

	// 前端完成 notes:flush 后关闭
	flushDone chan struct{}

	mu sync.RWMutex
}

// NewApp 创建新的应用实例
func NewApp(configPath string) *App {
	return &App{
		configPath: configPath,
		loop:       notes.NewLoop(0),
	}
}

// startup 在 Wails 应用启动时调用
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	// 1. 加载配置
	a.loadConfig()

	// 2. 初始化日志
	a.setupLogger()

	a.logger.Info("🚀 Sticky Notes 启动中...",
		"version", Version,
		"config_file", a.configPath)

	// 3. 打开设置存储；失败时便签无法持久化，但应用继续运行
	a.setupSettingsStore(ctx)

	// 4. 启动 UI 循环并初始化托盘管理器
	a.loop.Start()
	a.setupManager()

	// 5. 配置热重载
	a.setupConfigReload()

	a.logger.Info("✅ Sticky Notes 启动完成", "notes", a.noteCount())
}

// domReady 在前端 DOM 准备就绪时调用
// 前端就绪前发出的 note:open 事件会丢失，前端通过 ListNotes 补齐
func (a *App) domReady(ctx context.Context) {
	a.emitStyleUpdate()
}

// shutdown 在 Wails 应用关闭时调用
func (a *App) shutdown(ctx context.Context) {
	a.mu.Lock()
	logger := a.logger
	manager := a.manager
	db := a.db
	configWatcher := a.configWatcher
	logHandler := a.logHandler
	a.mu.Unlock()

	if logger != nil {
		logger.Info("🛑 正在关闭 Sticky Notes...")
	}

	// 1. 保存所有仍打开的便签并停止托盘（经托盘 Quit 退出时注册表已为空）
	if manager != nil {
		a.loop.Call(func() {
			manager.CloseAll()
			manager.Stop()
		})
	}

	// 2. 停止 UI 循环
	a.loop.Stop()

	// 3. 关闭数据库
	if db != nil {
		if err := db.Close(); err != nil && logger != nil {
			logger.Error("数据库关闭失败", "error", err)
		}
	}

	// 4. 关闭配置监听
	if configWatcher != nil {
		_ = configWatcher.Close()
	}

	if logger != nil {
		logger.Info("✅ Sticky Notes 已关闭")
	}

	// 5. 最后关闭日志文件
	if logHandler != nil {
		_ = logHandler.Close()
	}

	a.mu.Lock()
	a.db = nil
	a.manager = nil
	a.mu.Unlock()
}

// loadConfig 加载配置；用户目录下没有配置文件时写入嵌入的默认配置
func (a *App) loadConfig() {
	tempLogger := slog.Default()

	if err := utils.EnsureAppDirs(); err != nil {
		tempLogger.Warn("⚠️ 无法创建应用目录", "error", err)
	} else {
		tempLogger.Info("📁 应用目录已就绪",
			"appdir", utils.GetAppDataDir(),
			"data", utils.GetDataDir(),
			"logs", utils.GetLogDir())
	}

	created, err := config.EnsureConfigFile(a.configPath, defaultConfigContent)
	if err != nil {
		tempLogger.Warn("⚠️ 无法写入默认配置文件", "path", a.configPath, "error", err)
	} else if created {
		tempLogger.Info("📝 已写入默认配置文件", "path", a.configPath)
	}

	configWatcher, err := config.NewConfigWatcher(a.configPath, tempLogger)
	if err != nil {
		tempLogger.Error("❌ 无法加载配置文件，使用内置默认配置", "path", a.configPath, "error", err)

		cfg, parseErr := config.ParseConfig(defaultConfigContent)
		if parseErr != nil {
			panic("内置默认配置无效: " + parseErr.Error())
		}
		a.config = cfg
		return
	}

	a.configWatcher = configWatcher
	a.config = configWatcher.GetConfig()

	tempLogger.Info("✅ 配置加载完成",
		"log_path", a.config.Logging.FilePath,
		"db_path", a.config.Settings.DatabasePath)
}

// setupLogger 设置日志
func (a *App) setupLogger() {
	logger, handler := setupLogger(a.config.Logging)
	a.logger = logger
	a.logHandler = handler
	slog.SetDefault(logger)

	if a.configWatcher != nil {
		a.configWatcher.UpdateLogger(logger)
	}

	a.logger.Info("✅ 日志系统初始化完成",
		"level", a.config.Logging.Level,
		"file_enabled", a.config.Logging.FileEnabled)
}

// setupSettingsStore 打开 SQLite 设置存储并创建便签服务
func (a *App) setupSettingsStore(ctx context.Context) {
	openCtx, cancel := context.WithTimeout(ctx, storeOpenTimeout)
	defer cancel()

	cfg := a.config.Settings
	db, err := store.OpenSQLite(openCtx, cfg.Driver, cfg.DatabasePath)
	if err != nil {
		a.logger.Error("❌ 设置存储打开失败，便签将无法保存",
			"driver", cfg.Driver,
			"path", cfg.DatabasePath,
			"error", err)
		return
	}

	settingsStore := store.NewSQLiteSettingsStore(db, cfg.Organization, cfg.Application)

	a.db = db
	a.settingsStore = settingsStore
	a.noteService = service.NewNoteService(settingsStore, a.logger)

	a.logger.Info("✅ 设置存储已就绪",
		"driver", cfg.Driver,
		"path", cfg.DatabasePath,
		"scope", settingsStore.Scope())
}

// setupManager 创建托盘管理器并在 UI 循环中初始化
func (a *App) setupManager() {
	cfg := a.config

	// noteService 为 nil 时不能直接赋给接口，否则得到非 nil 的接口值
	var repo notes.NoteRepository
	if a.noteService != nil {
		repo = a.noteService
	}

	manager := notes.NewManager(notes.ManagerOptions{
		Repository:  repo,
		Surfaces:    a.newSurface,
		Tray:        startTray,
		TrayIcon:    trayIcon(cfg.Notes.BackgroundColor, a.logger),
		TrayTooltip: cfg.Tray.Tooltip,
		Title:       cfg.Notes.Title,
		DefaultSize: notes.Size{Width: cfg.Notes.DefaultWidth, Height: cfg.Notes.DefaultHeight},
		MinSize:     notes.Size{Width: cfg.Notes.MinWidth, Height: cfg.Notes.MinHeight},
		PrepareQuit: a.flushFrontend,
		Dispatch: func(fn func()) {
			if !a.loop.Post(fn) {
				a.logger.Warn("⚠️ UI 循环已停止，忽略托盘操作")
			}
		},
		// Quit 在 UI 循环中被调用，而 runtime.Quit 会同步触发 shutdown（其中会等待 UI 循环退出）
		Quit:           func() { go runtime.Quit(a.ctx) },
		OnCountChanged: a.onNoteCountChanged,
		Logger:         a.logger,
	})

	a.mu.Lock()
	a.manager = manager
	a.mu.Unlock()

	a.loop.Call(func() {
		if err := manager.Initialize(a.ctx); err != nil {
			a.logger.Error("❌ 托盘管理器初始化失败", "error", err)
		}
	})
}

// setupConfigReload 配置热重载：外观类配置立即推送到前端
// 存储与日志配置需重启生效
func (a *App) setupConfigReload() {
	if a.configWatcher == nil {
		return
	}

	a.configWatcher.AddReloadCallback(func(newCfg *config.Config) {
		a.mu.Lock()
		a.config = newCfg
		a.mu.Unlock()

		a.logger.Info("🔄 配置已重新加载")
		a.emitStyleUpdate()
	})

	a.logger.Info("🔄 配置热重载已启用")
}

// onNoteCountChanged 最后一个便签关闭后隐藏窗口，应用继续在托盘中运行
func (a *App) onNoteCountChanged(count int) {
	if count == 0 && a.ctx != nil {
		a.logger.Debug("🙈 没有打开的便签，隐藏窗口")
		runtime.WindowHide(a.ctx)
	}
}

// flushFrontend 通知前端提交尚未同步的文本与几何信息，并等待确认或超时
// 在托盘回调的 goroutine 上运行；前端的 UpdateNote* 调用需要 UI 循环空闲
func (a *App) flushFrontend() {
	if a.ctx == nil {
		return
	}

	done := make(chan struct{})
	a.mu.Lock()
	a.flushDone = done
	a.mu.Unlock()

	a.emitNotesFlush()

	select {
	case <-done:
		a.logger.Debug("✅ 前端编辑已提交")
	case <-time.After(flushTimeout):
		a.logger.Warn("⚠️ 等待前端提交编辑超时，继续退出")
	}

	a.mu.Lock()
	a.flushDone = nil
	a.mu.Unlock()
}

func (a *App) noteCount() int {
	a.mu.RLock()
	manager := a.manager
	a.mu.RUnlock()

	if manager == nil {
		return 0
	}

	count := 0
	a.loop.Call(func() { count = manager.Count() })
	return count
}

func (a *App) currentConfig() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// startTray 把 tray 包适配为托盘管理器需要的启动函数
func startTray(ctx context.Context, menu notes.TrayMenu) (notes.TrayHandle, error) {
	return tray.Start(ctx, tray.Options{
		Icon:      menu.Icon,
		Tooltip:   menu.Tooltip,
		OnNewNote: menu.OnNewNote,
		OnShowAll: menu.OnShowAll,
		OnQuit:    menu.OnQuit,
	})
}

// trayIcon 生成托盘图标；Windows 托盘需要 ICO，其它平台使用 PNG
func trayIcon(color string, logger *slog.Logger) []byte {
	img := icon.CreateTrayIcon(color)

	var (
		data []byte
		err  error
	)
	if goruntime.GOOS == "windows" {
		data, err = icon.EncodeICO(img)
	} else {
		data, err = icon.EncodePNG(img)
	}
	if err != nil {
		logger.Error("❌ 托盘图标生成失败", "error", err)
		return nil
	}
	return data
}
