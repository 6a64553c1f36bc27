// app_events.go - Wails 事件发射
// 将便签状态变化通知到前端

package main

import (
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"stickynotes/internal/notes"
)

// 事件名称常量
const (
	EventNoteOpen    = "note:open"
	EventNoteClose   = "note:close"
	EventNoteRaise   = "note:raise"
	EventNoteFocus   = "note:focus"
	EventStyleUpdate = "style:update"
	EventNotesFlush  = "notes:flush"
)

// emitNoteOpen 显示便签（已存在的便签只会被显示，不覆盖前端的文本）
func (a *App) emitNoteOpen(view notes.View) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, EventNoteOpen, view)
}

// emitNoteEvent 发送只携带便签 ID 的事件
func (a *App) emitNoteEvent(event, id string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, event, map[string]string{"id": id})
}

// emitStyleUpdate 推送便签与右键菜单样式
func (a *App) emitStyleUpdate() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, EventStyleUpdate, a.GetNoteStyle())
}

// emitNotesFlush 要求前端立即提交防抖中的编辑，完成后调用 NotesFlushed
func (a *App) emitNotesFlush() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, EventNotesFlush)
}
