// Package store 提供数据存储层实现
// 层级设置存储：按 组织/应用 划分作用域，键以 "/" 分隔分组
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry 表示数据库中的一条设置
type Entry struct {
	Key       string    `json:"key"` // 相对当前分组的键
	Value     []byte    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingsStore 定义层级键值存储接口
// 所有键都相对于当前分组（Group 返回的视图共享同一底层存储）
type SettingsStore interface {
	// 读写
	Value(ctx context.Context, key string) ([]byte, bool, error)
	Entry(ctx context.Context, key string) (*Entry, error)
	SetValue(ctx context.Context, key string, value []byte) error
	SetValues(ctx context.Context, values map[string][]byte) error
	Contains(ctx context.Context, key string) (bool, error)

	// Remove 删除键以及其下的整个子分组；key 为空时删除当前分组全部内容
	Remove(ctx context.Context, key string) error

	// 枚举
	ChildKeys(ctx context.Context) ([]string, error)
	ChildGroups(ctx context.Context) ([]string, error)
	AllKeys(ctx context.Context) ([]string, error)

	// 分组
	Group(name string) SettingsStore
	Prefix() string
}

// SQLiteSettingsStore 实现 SettingsStore 接口
type SQLiteSettingsStore struct {
	db     *sql.DB
	mu     *sync.RWMutex
	scope  string
	prefix string
}

// NewSQLiteSettingsStore 创建新的 SQLite 设置存储，作用域为 organization/application
func NewSQLiteSettingsStore(db *sql.DB, organization, application string) *SQLiteSettingsStore {
	return &SQLiteSettingsStore{
		db:    db,
		mu:    &sync.RWMutex{},
		scope: organization + "/" + application,
	}
}

// Scope 返回存储作用域
func (s *SQLiteSettingsStore) Scope() string {
	return s.scope
}

// Prefix 返回当前分组路径（根分组为空串）
func (s *SQLiteSettingsStore) Prefix() string {
	return s.prefix
}

// Group 返回子分组视图
func (s *SQLiteSettingsStore) Group(name string) SettingsStore {
	return &SQLiteSettingsStore{
		db:     s.db,
		mu:     s.mu,
		scope:  s.scope,
		prefix: joinKey(s.prefix, normalizeKey(name)),
	}
}

// Value 获取键值，不存在时返回 (nil, false, nil)
func (s *SQLiteSettingsStore) Value(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := s.Entry(ctx, key)
	if err != nil || entry == nil {
		return nil, false, err
	}
	return entry.Value, true, nil
}

// Entry 获取单条设置记录，不存在时返回 nil
func (s *SQLiteSettingsStore) Entry(ctx context.Context, key string) (*Entry, error) {
	fullKey, err := s.fullKey(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT value, COALESCE(updated_at, '') FROM settings WHERE scope = ? AND key = ?`

	var value []byte
	var updatedAt string
	err = s.db.QueryRowContext(ctx, query, s.scope, fullKey).Scan(&value, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("获取设置失败: %w", err)
	}

	if value == nil {
		value = []byte{}
	}

	return &Entry{
		Key:       normalizeKey(key),
		Value:     value,
		UpdatedAt: parseSQLiteDateTime(updatedAt),
	}, nil
}

// SetValue 设置单个值（存在则更新，不存在则插入）
func (s *SQLiteSettingsStore) SetValue(ctx context.Context, key string, value []byte) error {
	fullKey, err := s.fullKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, upsertQuery, s.scope, fullKey, nonNil(value)); err != nil {
		return fmt.Errorf("设置值失败: %w", err)
	}
	return nil
}

// SetValues 批量设置（事务）
func (s *SQLiteSettingsStore) SetValues(ctx context.Context, values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}

	fullKeys := make(map[string][]byte, len(values))
	for key, value := range values {
		fullKey, err := s.fullKey(key)
		if err != nil {
			return err
		}
		fullKeys[fullKey] = value
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return fmt.Errorf("准备语句失败: %w", err)
	}
	defer stmt.Close()

	for fullKey, value := range fullKeys {
		if _, err := stmt.ExecContext(ctx, s.scope, fullKey, nonNil(value)); err != nil {
			return fmt.Errorf("设置 %s 失败: %w", fullKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// Contains 检查键是否存在
func (s *SQLiteSettingsStore) Contains(ctx context.Context, key string) (bool, error) {
	entry, err := s.Entry(ctx, key)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// Remove 删除键及其子分组
func (s *SQLiteSettingsStore) Remove(ctx context.Context, key string) error {
	target := joinKey(s.prefix, normalizeKey(key))

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if target == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM settings WHERE scope = ?`, s.scope)
	} else {
		prefix := target + "/"
		query := `DELETE FROM settings WHERE scope = ? AND (key = ? OR ` + prefixMatch + `)`
		_, err = s.db.ExecContext(ctx, query, s.scope, target, prefix, prefix)
	}
	if err != nil {
		return fmt.Errorf("删除设置失败: %w", err)
	}
	return nil
}

// AllKeys 返回当前分组下所有键（相对路径，升序）
func (s *SQLiteSettingsStore) AllKeys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error
	if s.prefix == "" {
		rows, err = queryRowsWithSQLiteBusyRetry(ctx, func() (*sql.Rows, error) {
			return s.db.QueryContext(ctx, `SELECT key FROM settings WHERE scope = ? ORDER BY key ASC`, s.scope)
		})
	} else {
		prefix := s.prefix + "/"
		rows, err = queryRowsWithSQLiteBusyRetry(ctx, func() (*sql.Rows, error) {
			return s.db.QueryContext(ctx,
				`SELECT key FROM settings WHERE scope = ? AND `+prefixMatch+` ORDER BY key ASC`,
				s.scope, prefix, prefix)
		})
	}
	if err != nil {
		return nil, fmt.Errorf("查询设置键失败: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("扫描设置键失败: %w", err)
		}
		if s.prefix != "" {
			key = strings.TrimPrefix(key, s.prefix+"/")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历设置键失败: %w", err)
	}

	return keys, nil
}

// ChildKeys 返回当前分组的直接子键（不含子分组）
func (s *SQLiteSettingsStore) ChildKeys(ctx context.Context) ([]string, error) {
	keys, err := s.AllKeys(ctx)
	if err != nil {
		return nil, err
	}

	var result []string
	for _, key := range keys {
		if !strings.Contains(key, "/") {
			result = append(result, key)
		}
	}
	return result, nil
}

// ChildGroups 返回当前分组的直接子分组名（去重、升序）
func (s *SQLiteSettingsStore) ChildGroups(ctx context.Context) ([]string, error) {
	keys, err := s.AllKeys(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var groups []string
	for _, key := range keys {
		idx := strings.Index(key, "/")
		if idx <= 0 {
			continue
		}
		group := key[:idx]
		if _, ok := seen[group]; ok {
			continue
		}
		seen[group] = struct{}{}
		groups = append(groups, group)
	}
	sort.Strings(groups)
	return groups, nil
}

const upsertQuery = `
	INSERT INTO settings (scope, key, value)
	VALUES (?, ?, ?)
	ON CONFLICT(scope, key) DO UPDATE SET
		value = excluded.value,
		updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now')
`

// prefixMatch 按字符精确比较键前缀（区分大小写，不解释通配符），需绑定两次前缀
// LIKE 对 ASCII 字母不区分大小写，不能用于便签 ID
const prefixMatch = `substr(key, 1, length(?)) = ?`

func (s *SQLiteSettingsStore) fullKey(key string) (string, error) {
	key = normalizeKey(key)
	if key == "" {
		return "", fmt.Errorf("设置键不能为空")
	}
	return joinKey(s.prefix, key), nil
}

// normalizeKey 去除首尾及重复的 "/"
func normalizeKey(key string) string {
	parts := strings.Split(key, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "/")
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "/" + key
	}
}

func nonNil(value []byte) []byte {
	if value == nil {
		return []byte{}
	}
	return value
}
