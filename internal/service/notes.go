// Package service 提供业务逻辑层实现
// 便签持久化服务：notes/<id>/{content,geometry}
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stickynotes/internal/store"
)

// 持久化布局常量
const (
	GroupNotes  = "notes"
	KeyContent  = "content"
	KeyGeometry = "geometry"
)

// NoteRecord 表示一条已持久化的便签
type NoteRecord struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Geometry  []byte    `json:"geometry,omitempty"` // 不透明的窗口几何信息，缺失时为 nil
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteService 便签持久化业务服务
type NoteService struct {
	store  store.SettingsStore
	logger *slog.Logger
}

// NewNoteService 创建便签服务，settings 为根作用域存储
func NewNoteService(settings store.SettingsStore, logger *slog.Logger) *NoteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteService{
		store:  settings.Group(GroupNotes),
		logger: logger,
	}
}

// LoadAll 加载所有已保存的便签（每个子分组一条）
// 单条便签读取失败只记录日志并跳过，不影响其它便签
func (s *NoteService) LoadAll(ctx context.Context) ([]*NoteRecord, error) {
	ids, err := s.store.ChildGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("列出便签失败: %w", err)
	}

	records := make([]*NoteRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.Load(ctx, id)
		if err != nil {
			s.logger.Error("❌ 加载便签失败，已跳过", "id", id, "error", err)
			continue
		}
		if record != nil {
			records = append(records, record)
		}
	}
	return records, nil
}

// Load 加载单条便签，不存在时返回 nil
func (s *NoteService) Load(ctx context.Context, id string) (*NoteRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("便签 ID 不能为空")
	}

	group := s.store.Group(id)

	content, err := group.Entry(ctx, KeyContent)
	if err != nil {
		return nil, fmt.Errorf("读取便签 %s 内容失败: %w", id, err)
	}
	geometry, err := group.Entry(ctx, KeyGeometry)
	if err != nil {
		return nil, fmt.Errorf("读取便签 %s 几何信息失败: %w", id, err)
	}
	if content == nil && geometry == nil {
		return nil, nil
	}

	record := &NoteRecord{ID: id}
	if content != nil {
		record.Content = string(content.Value)
		record.UpdatedAt = content.UpdatedAt
	}
	if geometry != nil && len(geometry.Value) > 0 {
		record.Geometry = geometry.Value
		if geometry.UpdatedAt.After(record.UpdatedAt) {
			record.UpdatedAt = geometry.UpdatedAt
		}
	}
	return record, nil
}

// Save 保存便签内容与几何信息（同一事务）
func (s *NoteService) Save(ctx context.Context, id, content string, geometry []byte) error {
	if id == "" {
		return fmt.Errorf("便签 ID 不能为空")
	}

	err := s.store.Group(id).SetValues(ctx, map[string][]byte{
		KeyContent:  []byte(content),
		KeyGeometry: geometry,
	})
	if err != nil {
		return fmt.Errorf("保存便签 %s 失败: %w", id, err)
	}

	s.logger.Debug("💾 便签已保存", "id", id, "content_len", len(content), "geometry_len", len(geometry))
	return nil
}

// Remove 删除便签的整个子分组（不存在时不报错）
func (s *NoteService) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("便签 ID 不能为空")
	}

	if err := s.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("删除便签 %s 失败: %w", id, err)
	}

	s.logger.Debug("🗑️ 便签已从存储删除", "id", id)
	return nil
}

// Exists 检查便签是否已持久化
func (s *NoteService) Exists(ctx context.Context, id string) (bool, error) {
	groups, err := s.store.ChildGroups(ctx)
	if err != nil {
		return false, fmt.Errorf("列出便签失败: %w", err)
	}
	for _, g := range groups {
		if g == id {
			return true, nil
		}
	}
	return false, nil
}
