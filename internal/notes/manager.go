package notes

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"stickynotes/internal/service"
)

// NoteRepository 便签持久化
type NoteRepository interface {
	Persister
	LoadAll(ctx context.Context) ([]*service.NoteRecord, error)
	Remove(ctx context.Context, id string) error
}

// ManagerOptions 托盘管理器参数
type ManagerOptions struct {
	Repository NoteRepository
	Surfaces   SurfaceFactory

	// Tray 为 nil 时不创建托盘
	Tray        TrayStarter
	TrayIcon    []byte
	TrayTooltip string

	Title       string
	DefaultSize Size
	MinSize     Size

	// Dispatch 把托盘菜单回调投递到 UI 循环，nil 表示直接调用
	Dispatch func(func())
	// PrepareQuit 在托盘 “Quit” 投递到 UI 循环之前调用（宿主在此让前端提交未同步的编辑）
	// 运行在托盘回调所在的 goroutine，可以阻塞等待 UI 循环处理其它任务
	PrepareQuit func()
	// Quit 结束进程
	Quit func()
	// OnCountChanged 在注册表数量变化后调用
	OnCountChanged func(count int)

	Logger *slog.Logger
}

// Manager 托盘管理器：持有托盘、所有便签窗口及其注册表
type Manager struct {
	opts   ManagerOptions
	logger *slog.Logger
	ctx    context.Context

	notes map[string]*Window
	order []string // 创建顺序

	tray TrayHandle
}

// NewManager 创建托盘管理器
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Dispatch == nil {
		opts.Dispatch = func(fn func()) { fn() }
	}
	return &Manager{
		opts:   opts,
		logger: logger,
		ctx:    context.Background(),
		notes:  make(map[string]*Window),
	}
}

// Initialize 创建托盘并加载已保存的便签；一个都没有时创建一个默认便签
// “最后一个窗口关闭时不退出”由宿主负责（关闭窗口只隐藏）
func (m *Manager) Initialize(ctx context.Context) error {
	m.ctx = ctx

	if m.opts.Tray != nil && m.tray == nil {
		tray, err := m.opts.Tray(ctx, TrayMenu{
			Icon:      m.opts.TrayIcon,
			Tooltip:   m.opts.TrayTooltip,
			OnNewNote: func() { m.opts.Dispatch(func() { m.CreateNote("", "", nil) }) },
			OnShowAll: func() { m.opts.Dispatch(m.ShowAllNotes) },
			OnQuit: func() {
				if m.opts.PrepareQuit != nil {
					m.opts.PrepareQuit()
				}
				m.opts.Dispatch(m.Quit)
			},
		})
		if err != nil {
			m.logger.Error("❌ 系统托盘启动失败", "error", err)
		} else {
			m.tray = tray
		}
	}

	loaded := m.loadNotes(ctx)

	if m.Count() == 0 {
		m.CreateNote("", "", nil)
	}

	m.logger.Info("✅ 便签加载完成", "loaded", loaded, "open", m.Count())
	return nil
}

// loadNotes 每个已保存的子分组创建一个窗口；存储不可用时记录日志并返回 0
func (m *Manager) loadNotes(ctx context.Context) int {
	if m.opts.Repository == nil {
		return 0
	}

	records, err := m.opts.Repository.LoadAll(ctx)
	if err != nil {
		m.logger.Error("❌ 加载便签失败", "error", err)
		return 0
	}

	for _, record := range records {
		m.CreateNote(record.ID, record.Content, record.Geometry)
	}
	return len(records)
}

// CreateNote 创建、订阅、显示并注册便签窗口
// id 已在注册表中时不重复创建，直接置顶已有窗口
func (m *Manager) CreateNote(id, content string, geometry []byte) *Window {
	if id != "" {
		if existing, ok := m.notes[id]; ok {
			existing.Show()
			existing.Raise()
			existing.Focus()
			return existing
		}
	}

	if id == "" {
		id = uuid.NewString()
	}

	var surface Surface
	if m.opts.Surfaces != nil {
		surface = m.opts.Surfaces(id)
	}

	w := NewWindow(WindowOptions{
		ID:          id,
		Content:     content,
		Geometry:    geometry,
		Title:       m.opts.Title,
		DefaultSize: m.opts.DefaultSize,
		MinSize:     m.opts.MinSize,
		Surface:     surface,
		Persister:   m.persister(),
		Logger:      m.logger,
	})

	w.OnDeleteRequested(m.HandleNoteDeletion)
	w.OnNewNoteRequested(func() { m.CreateNote("", "", nil) })
	w.onClosed = m.unregister

	m.notes[w.ID()] = w
	m.order = append(m.order, w.ID())
	w.Show()

	m.logger.Debug("📝 便签已创建", "id", w.ID(), "open", len(m.notes))
	m.notifyCount()
	return w
}

// ShowAllNotes 注册表为空时新建一个便签，否则显示、置顶并聚焦所有便签
func (m *Manager) ShowAllNotes() {
	if len(m.notes) == 0 {
		m.CreateNote("", "", nil)
		return
	}

	for _, id := range m.IDs() {
		w := m.notes[id]
		w.Show()
		w.Raise()
		w.Focus()
	}
}

// HandleNoteDeletion 删除存储中的子分组并移出注册表
// id 不在注册表中时仍会删除存储记录
func (m *Manager) HandleNoteDeletion(ctx context.Context, id string) {
	if m.opts.Repository != nil {
		if err := m.opts.Repository.Remove(ctx, id); err != nil {
			m.logger.Error("❌ 删除便签存储失败", "id", id, "error", err)
		}
	}
	m.unregister(id)
	m.logger.Info("🗑️ 便签已删除", "id", id)
}

// CloseNote 关闭指定便签（会保存），不存在时返回 false
func (m *Manager) CloseNote(id string) bool {
	w, ok := m.notes[id]
	if !ok {
		return false
	}
	w.Close(m.ctx)
	return true
}

// DeleteNote 对指定便签执行 “Delete Note”，不存在时返回 false
func (m *Manager) DeleteNote(id string) bool {
	w, ok := m.notes[id]
	if !ok {
		return false
	}
	w.RequestDelete(m.ctx)
	return true
}

// CloseAll 关闭所有便签（每个便签各自保存）
func (m *Manager) CloseAll() {
	for _, id := range m.IDs() {
		if w, ok := m.notes[id]; ok {
			w.Close(m.ctx)
		}
	}
}

// Quit 关闭（并保存）所有打开的便签，停止托盘后结束进程
func (m *Manager) Quit() {
	if len(m.notes) > 0 {
		m.logger.Info("💾 退出前保存所有便签", "count", len(m.notes))
	}
	m.CloseAll()

	m.Stop()

	if m.opts.Quit != nil {
		m.opts.Quit()
	}
}

// Stop 停止托盘（幂等）
func (m *Manager) Stop() {
	if m.tray != nil {
		m.tray.Stop()
		m.tray = nil
	}
}

// Note 返回注册表中的便签
func (m *Manager) Note(id string) (*Window, bool) {
	w, ok := m.notes[id]
	return w, ok
}

// Count 返回打开的便签数
func (m *Manager) Count() int {
	return len(m.notes)
}

// IDs 按创建顺序返回打开的便签 ID
func (m *Manager) IDs() []string {
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// Views 按创建顺序返回打开的便签呈现数据
func (m *Manager) Views() []View {
	views := make([]View, 0, len(m.order))
	for _, id := range m.order {
		views = append(views, m.notes[id].View())
	}
	return views
}

func (m *Manager) unregister(id string) {
	if _, ok := m.notes[id]; !ok {
		return
	}
	delete(m.notes, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.notifyCount()
}

func (m *Manager) notifyCount() {
	if m.opts.OnCountChanged != nil {
		m.opts.OnCountChanged(len(m.notes))
	}
}

// persister 避免把 nil 接口值包装成非 nil 的 Persister
func (m *Manager) persister() Persister {
	if m.opts.Repository == nil {
		return nil
	}
	return m.opts.Repository
}
