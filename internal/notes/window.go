// Package notes 实现便签窗口与托盘管理器
// 所有方法都应在同一个 UI 循环（Loop）中调用，本包内部不加锁
package notes

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Persister 保存便签内容与几何信息
type Persister interface {
	Save(ctx context.Context, id, content string, geometry []byte) error
}

// WindowOptions 便签窗口创建参数
type WindowOptions struct {
	// ID 为空时生成新的 UUID
	ID      string
	Content string
	// Geometry 为空或无法解析时使用 DefaultSize
	Geometry []byte

	Title       string
	DefaultSize Size
	MinSize     Size

	Surface   Surface
	Persister Persister
	Logger    *slog.Logger
}

// Window 表示一个便签窗口，拥有自己的文本缓冲与几何信息
type Window struct {
	id       string
	title    string
	content  string
	geometry []byte
	view     Geometry
	restored bool
	minSize  Size

	deleting bool
	closed   bool

	surface   Surface
	persister Persister
	logger    *slog.Logger

	onDeleteRequested  func(ctx context.Context, id string)
	onNewNoteRequested func()
	onClosed           func(id string)
}

// NewWindow 创建便签窗口（尚未显示）
func NewWindow(opts WindowOptions) *Window {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	w := &Window{
		id:        id,
		title:     opts.Title,
		content:   opts.Content,
		minSize:   opts.MinSize,
		surface:   opts.Surface,
		persister: opts.Persister,
		logger:    logger,
	}

	if g, err := DecodeGeometry(opts.Geometry); err == nil {
		// 原样保留已保存的数据，关闭时写回同样的字节
		w.geometry = opts.Geometry
		w.view = g.clampToMin(opts.MinSize)
		w.restored = true
	} else {
		if len(opts.Geometry) > 0 {
			logger.Warn("⚠️ 便签几何信息无效，使用默认尺寸", "id", id, "error", err)
		}
		w.view = Geometry{Width: opts.DefaultSize.Width, Height: opts.DefaultSize.Height}.clampToMin(opts.MinSize)
		w.geometry = EncodeGeometry(w.view)
	}

	return w
}

// ID 返回便签 ID
func (w *Window) ID() string { return w.id }

// Content 返回当前文本
func (w *Window) Content() string { return w.content }

// Geometry 返回当前几何信息（不透明数据）
func (w *Window) Geometry() []byte { return w.geometry }

// IsDeleting 是否处于删除中
func (w *Window) IsDeleting() bool { return w.deleting }

// IsClosed 是否已关闭
func (w *Window) IsClosed() bool { return w.closed }

// OnDeleteRequested 注册“删除便签”通知
func (w *Window) OnDeleteRequested(fn func(ctx context.Context, id string)) {
	w.onDeleteRequested = fn
}

// OnNewNoteRequested 注册“新建便签”通知
func (w *Window) OnNewNoteRequested(fn func()) {
	w.onNewNoteRequested = fn
}

// View 返回当前呈现数据
func (w *Window) View() View {
	return View{
		ID:       w.id,
		Title:    w.title,
		Content:  w.content,
		Geometry: w.view,
		MinSize:  w.minSize,
		Restored: w.restored,
	}
}

// SetContent 同步宿主文本控件中的内容
func (w *Window) SetContent(content string) {
	if w.closed {
		return
	}
	w.content = content
}

// SetGeometry 同步宿主窗口移动/缩放后的几何信息，无效数据被忽略
func (w *Window) SetGeometry(blob []byte) bool {
	if w.closed {
		return false
	}
	g, err := DecodeGeometry(blob)
	if err != nil {
		w.logger.Debug("忽略无效的几何信息", "id", w.id, "error", err)
		return false
	}
	w.geometry = append([]byte(nil), blob...)
	w.view = g
	w.restored = true
	return true
}

// Show 显示窗口
func (w *Window) Show() {
	if w.closed || w.surface == nil {
		return
	}
	w.surface.Show(w.View())
}

// Raise 置顶窗口
func (w *Window) Raise() {
	if w.closed || w.surface == nil {
		return
	}
	w.surface.Raise()
}

// Focus 使窗口获得输入焦点
func (w *Window) Focus() {
	if w.closed || w.surface == nil {
		return
	}
	w.surface.Focus()
}

// RequestNewNote 对应右键菜单 “New Note”
func (w *Window) RequestNewNote() {
	if w.closed {
		return
	}
	if w.onNewNoteRequested != nil {
		w.onNewNoteRequested()
	}
}

// RequestDelete 对应右键菜单 “Delete Note”
// 顺序不可调换：先标记删除，再同步通知（由接收方删除存储记录），最后关闭（关闭时跳过保存）
func (w *Window) RequestDelete(ctx context.Context) {
	if w.closed {
		return
	}
	w.deleting = true
	if w.onDeleteRequested != nil {
		w.onDeleteRequested(ctx, w.id)
	}
	w.Close(ctx)
}

// Close 关闭窗口；未处于删除中时先保存内容与几何信息
// 保存失败只记录日志，窗口仍然关闭
func (w *Window) Close(ctx context.Context) {
	if w.closed {
		return
	}
	w.closed = true

	if !w.deleting && w.persister != nil {
		if err := w.persister.Save(ctx, w.id, w.content, w.geometry); err != nil {
			w.logger.Error("❌ 便签保存失败", "id", w.id, "error", err)
		}
	}

	if w.surface != nil {
		w.surface.Dispose()
	}

	if w.onClosed != nil {
		w.onClosed(w.id)
	}
}
