// main.go - Sticky Notes 应用入口
// 解析命令行参数并启动 Wails 宿主

package main

import (
	"embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"

	"stickynotes/config"
	"stickynotes/internal/icon"
	"stickynotes/internal/logging"
)

// 版本信息
var (
	Version   = "1.0.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// 命令行参数
var (
	configPath  = pflag.String("config", config.DefaultConfigPath(), "配置文件路径（不存在时写入默认配置）")
	showVersion = pflag.Bool("version", false, "显示版本信息")
)

// 嵌入前端资源
//
//go:embed all:frontend/dist
var assets embed.FS

// 嵌入默认配置文件
//
//go:embed config/config.yaml
var defaultConfigContent []byte

func main() {
	pflag.Parse()

	if *showVersion {
		fmt.Printf("Sticky Notes\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Built: %s\n", BuildTime)
		os.Exit(0)
	}

	app := NewApp(*configPath)

	aboutIcon, err := icon.EncodePNG(icon.CreateTrayIcon(icon.DefaultColor))
	if err != nil {
		aboutIcon = nil
	}

	err = wails.Run(&options.App{
		Title:     "Sticky Notes",
		Width:     1024,
		Height:    720,
		MinWidth:  320,
		MinHeight: 320,

		// 关闭窗口只隐藏，托盘仍在运行，退出只能通过托盘菜单
		HideWindowOnClose: true,

		AssetServer: &assetserver.Options{
			Assets: assets,
		},

		BackgroundColour: &options.RGBA{R: 245, G: 245, B: 240, A: 1},

		OnStartup:  app.startup,
		OnDomReady: app.domReady,
		OnShutdown: app.shutdown,

		Bind: []interface{}{
			app,
		},

		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  false,
				FullSizeContent:            true,
			},
			About: &mac.AboutInfo{
				Title:   "Sticky Notes",
				Message: fmt.Sprintf("桌面便签\n版本 %s", Version),
				Icon:    aboutIcon,
			},
		},

		Windows: &windows.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    false,
		},
	})

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogger 配置结构化日志
// 文件日志创建失败时只输出到控制台
func setupLogger(cfg config.LoggingConfig) (*slog.Logger, *logging.SimpleHandler) {
	level := logging.ParseLevel(cfg.Level)

	var fileRotator *logging.FileRotator
	if cfg.FileEnabled {
		maxSize, err := logging.ParseSize(cfg.MaxFileSize)
		if err != nil {
			fmt.Printf("警告：无法解析日志文件大小配置 '%s'，使用默认值 10MB: %v\n", cfg.MaxFileSize, err)
			maxSize = 10 * 1000 * 1000
		}

		fileRotator, err = logging.NewFileRotator(cfg.FilePath, maxSize, cfg.MaxFiles, cfg.CompressRotated)
		if err != nil {
			fmt.Printf("警告：无法创建日志文件轮转器: %v\n", err)
			fileRotator = nil
		}
	}

	handler := logging.NewSimpleHandler(level, fileRotator, os.Stdout)

	if fileRotator != nil {
		fmt.Printf("🔧 文件日志已启用: 路径=%s\n", cfg.FilePath)
	}

	return slog.New(handler), handler
}
