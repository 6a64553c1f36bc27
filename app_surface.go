// app_surface.go - 便签在 webview 中的呈现
// 每个便签是主窗口里的一个面板，所有操作都转换成前端事件

package main

import (
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"stickynotes/internal/notes"
)

type webviewSurface struct {
	app *App
	id  string
}

// newSurface 实现 notes.SurfaceFactory
func (a *App) newSurface(id string) notes.Surface {
	return &webviewSurface{app: a, id: id}
}

func (s *webviewSurface) Show(view notes.View) {
	s.app.revealWindow()
	s.app.emitNoteOpen(view)
}

func (s *webviewSurface) Raise() {
	s.app.emitNoteEvent(EventNoteRaise, s.id)
}

func (s *webviewSurface) Focus() {
	s.app.revealWindow()
	s.app.emitNoteEvent(EventNoteFocus, s.id)
}

func (s *webviewSurface) Dispose() {
	s.app.emitNoteEvent(EventNoteClose, s.id)
}

// revealWindow 显示并还原主窗口
func (a *App) revealWindow() {
	if a.ctx == nil {
		return
	}
	runtime.WindowShow(a.ctx)
	runtime.WindowUnminimise(a.ctx)
}
