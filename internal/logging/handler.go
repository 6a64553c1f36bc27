// Package logging 提供 slog 处理器与日志文件轮转
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// 单条日志显示上限
const maxMessageLen = 500

// SimpleHandler 简化的日志处理器
// 输出格式: [时间] [PID:x] [GID:x] [LEVEL] message k=v ...
type SimpleHandler struct {
	level       slog.Leveler
	fileRotator *FileRotator
	console     io.Writer
	attrs       []slog.Attr
	group       string
	mu          *sync.Mutex
}

// NewSimpleHandler 创建处理器；console 为 nil 时输出到标准输出，rotator 可为 nil
func NewSimpleHandler(level slog.Leveler, rotator *FileRotator, console io.Writer) *SimpleHandler {
	if console == nil {
		console = os.Stdout
	}
	return &SimpleHandler{
		level:       level,
		fileRotator: rotator,
		console:     console,
		mu:          &sync.Mutex{},
	}
}

// ParseLevel 把配置中的级别字符串转换为 slog.Level，未知值按 info 处理
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (h *SimpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *SimpleHandler) Handle(_ context.Context, r slog.Record) error {
	message := r.Message

	var attrs []string
	for _, a := range h.attrs {
		attrs = append(attrs, h.formatAttr(a))
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.formatAttr(a))
		return true
	})
	if len(attrs) > 0 {
		message = message + " " + strings.Join(attrs, " ")
	}

	if len(message) > maxMessageLen {
		message = message[:maxMessageLen] + "... (截断)"
	}

	timestamp := r.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	line := fmt.Sprintf("[%s] [PID:%d] [GID:%d] [%s] %s\n",
		timestamp.Format("2006-01-02 15:04:05.000"), os.Getpid(), getGoroutineID(), levelName(r.Level), message)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.fileRotator != nil {
		h.fileRotator.Write([]byte(line))
	}
	_, err := io.WriteString(h.console, line)
	return err
}

func (h *SimpleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *SimpleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group != "" {
		clone.group = clone.group + "." + name
	} else {
		clone.group = name
	}
	return &clone
}

// Close 刷盘并关闭日志文件
func (h *SimpleHandler) Close() error {
	if h.fileRotator != nil {
		h.fileRotator.Sync()
		return h.fileRotator.Close()
	}
	return nil
}

func (h *SimpleHandler) formatAttr(a slog.Attr) string {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	return fmt.Sprintf("%s=%v", key, a.Value)
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func getGoroutineID() int {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	fields := strings.Fields(string(buf))
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return id
}
