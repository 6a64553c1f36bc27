package notes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDefaultSize = Size{Width: 250, Height: 250}
	testMinSize     = Size{Width: 200, Height: 200}
)

func TestNewWindowGeneratesDistinctIDs(t *testing.T) {
	a := NewWindow(WindowOptions{})
	b := NewWindow(WindowOptions{})

	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestNewWindowKeepsSuppliedID(t *testing.T) {
	w := NewWindow(WindowOptions{ID: "n1", Content: "buy milk"})

	assert.Equal(t, "n1", w.ID())
	assert.Equal(t, "buy milk", w.Content())
}

func TestNewWindowDefaultGeometry(t *testing.T) {
	tests := []struct {
		name     string
		geometry []byte
	}{
		{"missing", nil},
		{"malformed", []byte("not json")},
		{"zero size", []byte(`{"x":1,"y":2,"width":0,"height":0}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWindow(WindowOptions{Geometry: tt.geometry, DefaultSize: testDefaultSize, MinSize: testMinSize})

			view := w.View()
			assert.False(t, view.Restored)
			assert.Equal(t, 250, view.Geometry.Width)
			assert.Equal(t, 250, view.Geometry.Height)

			g, err := DecodeGeometry(w.Geometry())
			require.NoError(t, err, "默认几何信息应可被再次解析")
			assert.Equal(t, 250, g.Width)
		})
	}
}

func TestNewWindowRestoresGeometryBytes(t *testing.T) {
	blob := []byte(`{"x":40,"y":60,"width":320,"height":280}`)
	w := NewWindow(WindowOptions{Geometry: blob, DefaultSize: testDefaultSize, MinSize: testMinSize})

	assert.Equal(t, blob, w.Geometry())
	view := w.View()
	assert.True(t, view.Restored)
	assert.Equal(t, Geometry{X: 40, Y: 60, Width: 320, Height: 280}, view.Geometry)
}

func TestNewWindowClampsRestoredGeometryToMinimum(t *testing.T) {
	blob := EncodeGeometry(Geometry{X: 1, Y: 1, Width: 50, Height: 500})
	w := NewWindow(WindowOptions{Geometry: blob, MinSize: testMinSize})

	assert.Equal(t, 200, w.View().Geometry.Width)
	assert.Equal(t, 500, w.View().Geometry.Height)
	assert.Equal(t, blob, w.Geometry(), "保存的数据保持原样")
}

func TestCloseSavesContentAndGeometry(t *testing.T) {
	repo := newMemoryRepo()
	surface := &fakeSurface{}
	w := NewWindow(WindowOptions{ID: "n1", Persister: repo, Surface: surface, DefaultSize: testDefaultSize})

	w.SetContent("draft")
	newGeometry := EncodeGeometry(Geometry{X: 5, Y: 6, Width: 300, Height: 300})
	require.True(t, w.SetGeometry(newGeometry))

	w.Close(context.Background())

	require.Contains(t, repo.records, "n1")
	assert.Equal(t, "draft", repo.records["n1"].Content)
	assert.Equal(t, newGeometry, repo.records["n1"].Geometry)
	assert.Equal(t, 1, surface.disposed)
	assert.True(t, w.IsClosed())
}

func TestCloseIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	w := NewWindow(WindowOptions{ID: "n1", Persister: repo})

	w.Close(context.Background())
	w.Close(context.Background())

	assert.Equal(t, []string{"save:n1"}, repo.calls)
}

func TestCloseSurvivesSaveFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.failAll = true
	surface := &fakeSurface{}
	w := NewWindow(WindowOptions{ID: "n1", Persister: repo, Surface: surface})

	w.Close(context.Background())

	assert.True(t, w.IsClosed())
	assert.Equal(t, 1, surface.disposed)
}

func TestSetGeometryIgnoresInvalidBlob(t *testing.T) {
	blob := EncodeGeometry(Geometry{X: 1, Y: 2, Width: 210, Height: 220})
	w := NewWindow(WindowOptions{Geometry: blob})

	assert.False(t, w.SetGeometry([]byte("{")))
	assert.Equal(t, blob, w.Geometry())
}

func TestRequestDeleteOrdering(t *testing.T) {
	repo := newMemoryRepo()
	w := NewWindow(WindowOptions{ID: "n1", Persister: repo})

	var events []string
	w.OnDeleteRequested(func(ctx context.Context, id string) {
		assert.True(t, w.IsDeleting(), "通知前必须已标记删除")
		assert.False(t, w.IsClosed(), "通知时窗口尚未关闭")
		events = append(events, "delete:"+id)
		_ = repo.Remove(ctx, id)
	})

	w.SetContent("draft")
	w.RequestDelete(context.Background())

	assert.Equal(t, []string{"delete:n1"}, events)
	assert.True(t, w.IsClosed())
	assert.Equal(t, []string{"remove:n1"}, repo.calls, "删除中的便签关闭时不能保存")
	assert.NotContains(t, repo.records, "n1")
}

func TestRequestNewNote(t *testing.T) {
	w := NewWindow(WindowOptions{})

	requested := 0
	w.OnNewNoteRequested(func() { requested++ })
	w.RequestNewNote()
	assert.Equal(t, 1, requested)

	w.Close(context.Background())
	w.RequestNewNote()
	assert.Equal(t, 1, requested, "关闭后的窗口不再发出通知")
}

func TestClosedWindowIgnoresSurfaceCalls(t *testing.T) {
	surface := &fakeSurface{}
	w := NewWindow(WindowOptions{Surface: surface})

	w.Show()
	w.Close(context.Background())
	w.Show()
	w.Raise()
	w.Focus()

	assert.Len(t, surface.shown, 1)
	assert.Zero(t, surface.raised)
	assert.Zero(t, surface.focused)
}

func TestDecodeGeometryRoundTrip(t *testing.T) {
	g := Geometry{X: -20, Y: 15, Width: 260, Height: 240}

	decoded, err := DecodeGeometry(EncodeGeometry(g))
	require.NoError(t, err)
	assert.Equal(t, g, decoded)

	_, err = DecodeGeometry(nil)
	assert.Error(t, err)
}
