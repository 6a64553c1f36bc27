package tray

import "context"

// Controller 表示托盘控制器（用于停止托盘）。
type Controller interface {
	Stop()
}

// Options 托盘启动参数。
type Options struct {
	// Icon 托盘图标内容（Windows 需要 .ico 字节；其它平台使用 PNG）。
	Icon []byte

	// Tooltip 托盘悬浮提示文本。
	Tooltip string

	// OnNewNote 用户点击“New Note”时触发。
	OnNewNote func()

	// OnShowAll 用户点击“Show All Notes”时触发。
	OnShowAll func()

	// OnQuit 用户选择“Quit”时触发。
	OnQuit func()
}

// Start 启动系统托盘（平台相关实现）。
// 菜单回调在托盘自己的 goroutine 上执行，调用方负责切换到 UI 循环。
func Start(ctx context.Context, opts Options) (Controller, error) {
	return start(ctx, opts)
}
