package notes

import "context"

// View 便签窗口首次显示时交给宿主的数据
type View struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Geometry Geometry `json:"geometry"`
	MinSize  Size     `json:"min_size"`
	// Restored 为 false 表示没有可用的几何信息，宿主自行决定摆放位置（使用默认尺寸）
	Restored bool `json:"restored"`
}

// Surface 是便签窗口在宿主 UI 中的呈现
// 文本编辑（撤销/重做/剪切/复制/粘贴/全选）完全由宿主的文本控件负责
type Surface interface {
	Show(view View)
	Raise()
	Focus()
	Dispose()
}

// SurfaceFactory 为指定 ID 的便签创建呈现
type SurfaceFactory func(id string) Surface

// TrayMenu 托盘图标及菜单回调
type TrayMenu struct {
	Icon      []byte
	Tooltip   string
	OnNewNote func()
	OnShowAll func()
	OnQuit    func()
}

// TrayHandle 已启动的托盘
type TrayHandle interface {
	Stop()
}

// TrayStarter 启动托盘
type TrayStarter func(ctx context.Context, menu TrayMenu) (TrayHandle, error)
