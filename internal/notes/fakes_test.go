package notes

import (
	"context"
	"errors"
	"sort"

	"stickynotes/internal/service"
)

// memoryRepo 内存版便签存储，记录调用顺序
type memoryRepo struct {
	records map[string]*service.NoteRecord
	calls   []string
	failAll bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string]*service.NoteRecord)}
}

func (r *memoryRepo) Save(_ context.Context, id, content string, geometry []byte) error {
	r.calls = append(r.calls, "save:"+id)
	if r.failAll {
		return errors.New("disk full")
	}
	r.records[id] = &service.NoteRecord{ID: id, Content: content, Geometry: geometry}
	return nil
}

func (r *memoryRepo) LoadAll(_ context.Context) ([]*service.NoteRecord, error) {
	if r.failAll {
		return nil, errors.New("database is locked")
	}
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]*service.NoteRecord, 0, len(ids))
	for _, id := range ids {
		rec := *r.records[id]
		result = append(result, &rec)
	}
	return result, nil
}

func (r *memoryRepo) Remove(_ context.Context, id string) error {
	r.calls = append(r.calls, "remove:"+id)
	if r.failAll {
		return errors.New("readonly database")
	}
	delete(r.records, id)
	return nil
}

// fakeSurface 记录宿主调用
type fakeSurface struct {
	id       string
	shown    []View
	raised   int
	focused  int
	disposed int
}

func (s *fakeSurface) Show(view View) { s.shown = append(s.shown, view) }
func (s *fakeSurface) Raise()         { s.raised++ }
func (s *fakeSurface) Focus()         { s.focused++ }
func (s *fakeSurface) Dispose()       { s.disposed++ }

type surfaceRecorder struct {
	byID map[string]*fakeSurface
}

func newSurfaceRecorder() *surfaceRecorder {
	return &surfaceRecorder{byID: make(map[string]*fakeSurface)}
}

func (r *surfaceRecorder) factory(id string) Surface {
	s := &fakeSurface{id: id}
	r.byID[id] = s
	return s
}

type fakeTray struct {
	menu    TrayMenu
	stopped int
}

func (t *fakeTray) Stop() { t.stopped++ }

func (t *fakeTray) starter(_ context.Context, menu TrayMenu) (TrayHandle, error) {
	t.menu = menu
	return t, nil
}
