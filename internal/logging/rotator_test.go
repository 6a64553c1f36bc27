package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	n, err := ParseSize("10MB")
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), n)

	n, err = ParseSize("1KiB")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), n)

	_, err = ParseSize("lots")
	assert.Error(t, err)

	_, err = ParseSize("0")
	assert.Error(t, err)
}

func TestNewFileRotatorRejectsBadArgs(t *testing.T) {
	_, err := NewFileRotator("", 10, 1, false)
	assert.Error(t, err)

	_, err = NewFileRotator(filepath.Join(t.TempDir(), "app.log"), 0, 1, false)
	assert.Error(t, err)
}

func TestFileRotatorRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	r, err := NewFileRotator(path, 10, 2, false)
	require.NoError(t, err)
	defer r.Close()

	for _, line := range []string{"aaaaaaaa\n", "bbbbbbbb\n", "cccccccc\n", "dddddddd\n"} {
		_, err := r.Write([]byte(line))
		require.NoError(t, err)
	}

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dddddddd\n", string(current))

	first, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "cccccccc\n", string(first))

	second, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbbb\n", string(second))

	// 超过 maxFiles 的旧文件被丢弃
	assert.NoFileExists(t, path+".3")
}

func TestFileRotatorCompressesRotatedFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	r, err := NewFileRotator(path, 16, 3, true)
	require.NoError(t, err)
	defer r.Close()

	first := strings.Repeat("x", 12) + "\n"
	_, err = r.Write([]byte(first))
	require.NoError(t, err)
	_, err = r.Write([]byte("next line\n"))
	require.NoError(t, err)

	assert.NoFileExists(t, path+".1")
	f, err := os.Open(path + ".1.br")
	require.NoError(t, err)
	defer f.Close()

	decoded, err := io.ReadAll(brotli.NewReader(f))
	require.NoError(t, err)
	assert.Equal(t, first, string(decoded))
}

func TestFileRotatorWithoutBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	r, err := NewFileRotator(path, 5, 0, false)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("1234\n"))
	require.NoError(t, err)
	_, err = r.Write([]byte("abcd\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcd\n", string(data))
	assert.NoFileExists(t, path+".1")
}

func TestFileRotatorWriteAfterClose(t *testing.T) {
	r, err := NewFileRotator(filepath.Join(t.TempDir(), "app.log"), 100, 1, false)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err = r.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestFileRotatorKeepsWritingWhenRotationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	// app.log.1 是非空目录，重命名必然失败
	require.NoError(t, os.MkdirAll(filepath.Join(path+".1", "busy"), 0755))

	r, err := NewFileRotator(path, 10, 1, false)
	require.NoError(t, err)
	defer r.Close()

	for _, line := range []string{"aaaaaaaa\n", "bbbbbbbb\n", "cccccccc\n"} {
		_, err := r.Write([]byte(line))
		require.NoError(t, err)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaa\nbbbbbbbb\ncccccccc\n", string(data))
}
