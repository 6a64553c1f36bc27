package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const (
	busyRetryInitialBackoff = 30 * time.Millisecond
	busyRetryMaxBackoff     = 500 * time.Millisecond
)

func isSQLiteBusyError(err error) bool {
	if err == nil {
		return false
	}
	// 两个驱动的错误类型不同，统一按消息判断
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlite_busy") || strings.Contains(msg, "database is locked")
}

// queryRowsWithSQLiteBusyRetry 在数据库被其它连接锁定时退避重试读查询，直到 ctx 结束
func queryRowsWithSQLiteBusyRetry(ctx context.Context, queryFn func() (*sql.Rows, error)) (*sql.Rows, error) {
	if ctx == nil {
		return queryFn()
	}

	backoff := busyRetryInitialBackoff
	for {
		rows, err := queryFn()
		if err == nil || !isSQLiteBusyError(err) {
			return rows, err
		}

		if ctx.Err() != nil {
			return nil, err
		}

		wait := min(backoff, busyRetryMaxBackoff)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, err
		case <-timer.C:
		}

		backoff *= 2
	}
}
