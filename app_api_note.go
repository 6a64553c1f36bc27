// app_api_note.go - 便签相关 API
// 前端通过这些方法读写便签，所有调用都在 UI 循环中执行

package main

import (
	"errors"
	"fmt"

	"stickynotes/internal/notes"
)

var (
	errNotReady     = errors.New("便签管理器未初始化")
	errLoopStopped  = errors.New("应用正在退出")
	errNoteNotFound = errors.New("便签不存在")
)

// NoteStyle 便签与右键菜单外观
type NoteStyle struct {
	BackgroundColor string    `json:"background_color"`
	TextColor       string    `json:"text_color"`
	BorderColor     string    `json:"border_color"`
	FontSize        int       `json:"font_size"`
	Padding         int       `json:"padding"`
	MinWidth        int       `json:"min_width"`
	MinHeight       int       `json:"min_height"`
	Menu            MenuStyle `json:"menu"`
}

// MenuStyle 右键菜单外观
type MenuStyle struct {
	BackgroundColor      string `json:"background_color"`
	TextColor            string `json:"text_color"`
	TextDisabledColor    string `json:"text_disabled_color"`
	HoverBackgroundColor string `json:"hover_background_color"`
	HoverTextColor       string `json:"hover_text_color"`
	BorderColor          string `json:"border_color"`
	SeparatorColor       string `json:"separator_color"`
}

// onManager 在 UI 循环中执行 fn
func (a *App) onManager(fn func(m *notes.Manager) error) error {
	a.mu.RLock()
	manager := a.manager
	a.mu.RUnlock()

	if manager == nil {
		return errNotReady
	}

	var err error
	if !a.loop.Call(func() { err = fn(manager) }) {
		return errLoopStopped
	}
	return err
}

// ListNotes 按创建顺序返回所有打开的便签
func (a *App) ListNotes() []notes.View {
	var views []notes.View
	_ = a.onManager(func(m *notes.Manager) error {
		views = m.Views()
		return nil
	})
	if views == nil {
		views = []notes.View{}
	}
	return views
}

// NewNote 对应右键菜单 “New Note”
func (a *App) NewNote() (notes.View, error) {
	var view notes.View
	err := a.onManager(func(m *notes.Manager) error {
		view = m.CreateNote("", "", nil).View()
		return nil
	})
	return view, err
}

// UpdateNoteContent 同步文本框内容
func (a *App) UpdateNoteContent(id, content string) error {
	return a.onManager(func(m *notes.Manager) error {
		w, ok := m.Note(id)
		if !ok {
			return fmt.Errorf("%w: %s", errNoteNotFound, id)
		}
		w.SetContent(content)
		return nil
	})
}

// UpdateNoteGeometry 同步拖动/缩放后的位置与大小
func (a *App) UpdateNoteGeometry(id string, geometry notes.Geometry) error {
	blob := notes.EncodeGeometry(geometry)
	return a.onManager(func(m *notes.Manager) error {
		w, ok := m.Note(id)
		if !ok {
			return fmt.Errorf("%w: %s", errNoteNotFound, id)
		}
		if !w.SetGeometry(blob) {
			return fmt.Errorf("无效的几何信息: %+v", geometry)
		}
		return nil
	})
}

// CloseNote 关闭便签并保存
func (a *App) CloseNote(id string) error {
	return a.onManager(func(m *notes.Manager) error {
		if !m.CloseNote(id) {
			return fmt.Errorf("%w: %s", errNoteNotFound, id)
		}
		return nil
	})
}

// DeleteNote 对应右键菜单 “Delete Note”：删除存储记录后关闭，不再保存
func (a *App) DeleteNote(id string) error {
	return a.onManager(func(m *notes.Manager) error {
		if !m.DeleteNote(id) {
			return fmt.Errorf("%w: %s", errNoteNotFound, id)
		}
		return nil
	})
}

// NotesFlushed 前端处理完 notes:flush 后调用
func (a *App) NotesFlushed() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.flushDone != nil {
		close(a.flushDone)
		a.flushDone = nil
	}
}

// GetNoteStyle 返回当前配置中的外观
func (a *App) GetNoteStyle() NoteStyle {
	cfg := a.currentConfig()
	if cfg == nil {
		return NoteStyle{}
	}

	return NoteStyle{
		BackgroundColor: cfg.Notes.BackgroundColor,
		TextColor:       cfg.Notes.TextColor,
		BorderColor:     cfg.Notes.BorderColor,
		FontSize:        cfg.Notes.FontSize,
		Padding:         cfg.Notes.Padding,
		MinWidth:        cfg.Notes.MinWidth,
		MinHeight:       cfg.Notes.MinHeight,
		Menu: MenuStyle{
			BackgroundColor:      cfg.Menu.BackgroundColor,
			TextColor:            cfg.Menu.TextColor,
			TextDisabledColor:    cfg.Menu.TextDisabledColor,
			HoverBackgroundColor: cfg.Menu.HoverBackgroundColor,
			HoverTextColor:       cfg.Menu.HoverTextColor,
			BorderColor:          cfg.Menu.BorderColor,
			SeparatorColor:       cfg.Menu.SeparatorColor,
		},
	}
}
