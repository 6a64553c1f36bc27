package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/dustin/go-humanize"
)

// FileRotator 按大小轮转的日志文件写入器
// 轮转文件命名为 app.log.1、app.log.2 …（压缩时为 app.log.1.br），数字越大越旧
type FileRotator struct {
	mu       sync.Mutex
	path     string
	maxSize  int64
	maxFiles int
	compress bool

	file *os.File
	size int64
}

// ParseSize 解析 "10MB"、"512KiB" 这类大小配置
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("无法解析大小 %q: %w", s, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("大小必须大于 0: %q", s)
	}
	return int64(n), nil
}

// NewFileRotator 打开（或创建）日志文件
func NewFileRotator(path string, maxSize int64, maxFiles int, compress bool) (*FileRotator, error) {
	if path == "" {
		return nil, fmt.Errorf("日志文件路径不能为空")
	}
	if maxSize <= 0 {
		return nil, fmt.Errorf("日志文件大小上限必须大于 0")
	}

	r := &FileRotator{
		path:     path,
		maxSize:  maxSize,
		maxFiles: maxFiles,
		compress: compress,
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRotator) open() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %w", err)
	}

	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("读取日志文件信息失败: %w", err)
	}

	r.file = file
	r.size = info.Size()
	return nil
}

// Write 写入日志，超过大小上限时先轮转
func (r *FileRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return 0, os.ErrClosed
	}

	if r.size > 0 && r.size+int64(len(p)) > r.maxSize {
		// 轮转失败时继续写入原文件，下次写入再尝试轮转
		if err := r.rotate(); err != nil && r.file == nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// Sync 刷盘
func (r *FileRotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	return r.file.Sync()
}

// Close 关闭文件
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *FileRotator) rotatedName(i int) string {
	if r.compress {
		return fmt.Sprintf("%s.%d.br", r.path, i)
	}
	return fmt.Sprintf("%s.%d", r.path, i)
}

// rotate 关闭当前文件并轮转；无论轮转是否成功都会重新打开 r.path
func (r *FileRotator) rotate() error {
	closeErr := r.file.Close()
	r.file = nil

	err := r.shift()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("关闭日志文件失败: %w", closeErr)
	}

	if openErr := r.open(); openErr != nil {
		return errors.Join(err, openErr)
	}
	return err
}

// shift 把 app.log.N 依次后移，并把当前文件变为 app.log.1
func (r *FileRotator) shift() error {
	if r.maxFiles <= 0 {
		if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("删除日志文件失败: %w", err)
		}
		return nil
	}

	_ = os.Remove(r.rotatedName(r.maxFiles))
	for i := r.maxFiles - 1; i >= 1; i-- {
		src := r.rotatedName(i)
		if _, err := os.Stat(src); err == nil {
			if err := os.Rename(src, r.rotatedName(i+1)); err != nil {
				return fmt.Errorf("轮转日志文件失败: %w", err)
			}
		}
	}

	if r.compress {
		if err := compressFile(r.path, r.rotatedName(1)); err != nil {
			return err
		}
		if err := os.Remove(r.path); err != nil {
			return fmt.Errorf("删除已压缩的日志文件失败: %w", err)
		}
		return nil
	}

	if err := os.Rename(r.path, r.rotatedName(1)); err != nil {
		return fmt.Errorf("轮转日志文件失败: %w", err)
	}
	return nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("打开待压缩日志失败: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("创建压缩日志失败: %w", err)
	}

	w := brotli.NewWriterLevel(out, brotli.DefaultCompression)
	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		out.Close()
		return fmt.Errorf("压缩日志失败: %w", err)
	}
	if err := w.Close(); err != nil {
		out.Close()
		return fmt.Errorf("压缩日志失败: %w", err)
	}
	return out.Close()
}
