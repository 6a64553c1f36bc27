package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// 支持的驱动名（即 database/sql 注册名）
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite，纯 Go
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3，需要 cgo
)

//go:embed schema.sql
var settingsSchema string

// OpenSQLite 打开设置数据库并初始化 schema
func OpenSQLite(ctx context.Context, driver, dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("数据库路径不能为空")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	dsn, err := buildDSN(driver, dbPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("打开 SQLite 数据库失败: %w", err)
	}

	// SQLite 写操作需要单一连接
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("连接 SQLite 数据库失败: %w", err)
	}

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// InitSchema 创建 settings 表（幂等）
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, settingsSchema); err != nil {
		return fmt.Errorf("初始化 settings 表失败: %w", err)
	}
	return nil
}

func buildDSN(driver, dbPath string) (string, error) {
	memory := dbPath == ":memory:"

	switch driver {
	case DriverModernc:
		if memory {
			return dbPath, nil
		}
		return dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", nil
	case DriverMattn:
		if memory {
			return dbPath, nil
		}
		return dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", nil
	default:
		return "", fmt.Errorf("不支持的 SQLite 驱动: %s", driver)
	}
}
