package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestDB 创建测试用的 SQLite 数据库
func createTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenSQLite(context.Background(), DriverModernc, dbPath)
	require.NoError(t, err, "打开数据库失败")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSetValueAndValue(t *testing.T) {
	store := NewSQLiteSettingsStore(createTestDB(t), "Org", "App")
	ctx := context.Background()

	require.NoError(t, store.SetValue(ctx, "notes/n1/content", []byte("buy milk")))

	value, ok, err := store.Value(ctx, "notes/n1/content")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "buy milk", string(value))

	// 覆盖写
	require.NoError(t, store.SetValue(ctx, "notes/n1/content", []byte("buy eggs")))
	value, _, err = store.Value(ctx, "notes/n1/content")
	require.NoError(t, err)
	assert.Equal(t, "buy eggs", string(value))
}

func TestValueNotFound(t *testing.T) {
	store := NewSQLiteSettingsStore(createTestDB(t), "Org", "App")

	value, ok, err := store.Value(context.Background(), "missing")
	require.NoError(t, err, "获取不存在的键不应报错")
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestEmptyValueIsStored(t *testing.T) {
	store := NewSQLiteSettingsStore(createTestDB(t), "Org", "App")
	ctx := context.Background()

	require.NoError(t, store.SetValue(ctx, "k", nil))

	value, ok, err := store.Value(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "空值也应视为存在")
	assert.Empty(t, value)
}

func TestEntryHasUpdatedAt(t *testing.T) {
	store := NewSQLiteSettingsStore(createTestDB(t), "Org", "App")
	ctx := context.Background()

	require.NoError(t, store.SetValue(ctx, "k", []byte("v")))

	entry, err := store.Entry(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "k", entry.Key)
	assert.False(t, entry.UpdatedAt.IsZero())
	assert.WithinDuration(t, time.Now().UTC(), entry.UpdatedAt.UTC(), time.Hour)
}

func TestGroupScoping(t *testing.T) {
	store := NewSQLiteSettingsStore(createTestDB(t), "Org", "App")
	ctx := context.Background()

	notes := store.Group("notes")
	assert.Equal(t, "notes", notes.Prefix())

	n1 := notes.Group("n1")
	assert.Equal(t, "notes/n1", n1.Prefix())
	require.NoError(t, n1.SetValue(ctx, "content", []byte("hello")))

	value, ok, err := store.Value(ctx, "notes/n1/content")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", string(value))

	// 多余的斜杠会被规范化
	value, ok, err = notes.Value(ctx, "/n1//content/")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", string(value))
}

func TestChildGroupsAndKeys(t *testing.T) {
	store := NewSQLiteSettingsStore(createTestDB(t), "Org", "App")
	ctx := context.Background()

	require.NoError(t, store.SetValues(ctx, map[string][]byte{
		"notes/b/content":  []byte("B"),
		"notes/b/geometry": []byte("{}"),
		"notes/a/content":  []byte("A"),
		"notes/version":    []byte("1"),
		"other/x":          []byte("x"),
	}))

	notes := store.Group("notes")

	groups, err := notes.ChildGroups(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"a", "b"}, groups); diff != "" {
		t.Errorf("ChildGroups mismatch (-want +got):\n%s", diff)
	}

	keys, err := notes.ChildKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"version"}, keys)

	all, err := notes.AllKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/content", "b/content", "b/geometry", "version"}, all)

	rootGroups, err := store.ChildGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes", "other"}, rootGroups)
}

func TestRemoveGroup(t *testing.T) {
	store := NewSQLiteSettingsStore(createTestDB(t), "Org", "App")
	ctx := context.Background()
	notes := store.Group("notes")

	require.NoError(t, notes.SetValues(ctx, map[string][]byte{
		"n1/content":  []byte("one"),
		"n1/geometry": []byte("g1"),
		"n10/content": []byte("ten"),
	}))

	require.NoError(t, notes.Remove(ctx, "n1"))

	groups, err := notes.ChildGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"n10"}, groups, "删除 n1 不应影响前缀相同的 n10")

	// 删除不存在的分组不报错
	require.NoError(t, notes.Remove(ctx, "n1"))
}

func TestRemoveTreatsWildcardsLiterally(t *testing.T) {
	store := NewSQLiteSettingsStore(createTestDB(t), "Org", "App")
	ctx := context.Background()

	require.NoError(t, store.SetValue(ctx, "a_b/content", []byte("1")))
	require.NoError(t, store.SetValue(ctx, "axb/content", []byte("2")))

	require.NoError(t, store.Remove(ctx, "a_b"))

	groups, err := store.ChildGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"axb"}, groups)
}

func TestRemoveIsCaseSensitive(t *testing.T) {
	store := NewSQLiteSettingsStore(createTestDB(t), "Org", "App")
	ctx := context.Background()

	require.NoError(t, store.SetValue(ctx, "ABC/content", []byte("upper")))
	require.NoError(t, store.SetValue(ctx, "abc/content", []byte("lower")))

	require.NoError(t, store.Remove(ctx, "abc"))

	groups, err := store.ChildGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC"}, groups, "删除 abc 不应影响 ABC")

	value, ok, err := store.Value(ctx, "ABC/content")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("upper"), value)
}

func TestGroupKeysAreCaseSensitive(t *testing.T) {
	store := NewSQLiteSettingsStore(createTestDB(t), "Org", "App")
	ctx := context.Background()

	require.NoError(t, store.SetValue(ctx, "NOTES/x/content", []byte("other")))
	require.NoError(t, store.SetValue(ctx, "notes/n1/content", []byte("mine")))

	groups, err := store.Group("notes").ChildGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, groups)

	keys, err := store.Group("notes").AllKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1/content"}, keys)
}

func TestRemoveWholeGroup(t *testing.T) {
	store := NewSQLiteSettingsStore(createTestDB(t), "Org", "App")
	ctx := context.Background()

	require.NoError(t, store.SetValue(ctx, "notes/n1/content", []byte("1")))
	require.NoError(t, store.SetValue(ctx, "keep", []byte("k")))

	require.NoError(t, store.Group("notes").Remove(ctx, ""))

	keys, err := store.AllKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, keys)
}

func TestScopesAreIsolated(t *testing.T) {
	db := createTestDB(t)
	ctx := context.Background()

	a := NewSQLiteSettingsStore(db, "Org", "A")
	b := NewSQLiteSettingsStore(db, "Org", "B")

	require.NoError(t, a.SetValue(ctx, "k", []byte("a")))

	_, ok, err := b.Value(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Remove(ctx, ""))
	_, ok, err = a.Value(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "其它作用域的删除不应影响本作用域")
}

func TestEmptyKeyRejected(t *testing.T) {
	store := NewSQLiteSettingsStore(createTestDB(t), "Org", "App")

	assert.Error(t, store.SetValue(context.Background(), "", []byte("x")))
	assert.Error(t, store.SetValue(context.Background(), "///", []byte("x")))
}

func TestOpenSQLiteUnsupportedDriver(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "postgres", filepath.Join(t.TempDir(), "x.db"))
	assert.Error(t, err)
}

func TestIsSQLiteBusyError(t *testing.T) {
	assert.False(t, isSQLiteBusyError(nil))
	assert.True(t, isSQLiteBusyError(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, isSQLiteBusyError(errors.New("no such table")))
}

func TestParseSQLiteDateTime(t *testing.T) {
	assert.True(t, parseSQLiteDateTime("").IsZero())
	assert.Equal(t, 2025, parseSQLiteDateTime("2025-01-02 03:04:05.123").Year())
	assert.Equal(t, 2025, parseSQLiteDateTime("2025-01-02T03:04:05.123Z").Year())
}
