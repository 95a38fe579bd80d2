package tasks_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
	"github.com/odyssey-erp/odyssey-todo/internal/tasks"
)

type memRepo struct {
	mu     sync.Mutex
	rows   map[int64]*tasks.Task
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[int64]*tasks.Task{}}
}

func (m *memRepo) Create(ctx context.Context, task tasks.NewTask) (*tasks.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	row := &tasks.Task{ID: m.nextID, Description: task.Description, OwnerID: task.OwnerID, CreatedAt: time.Now()}
	m.rows[row.ID] = row
	copied := *row
	return &copied, nil
}

func (m *memRepo) Get(ctx context.Context, id int64) (*tasks.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (m *memRepo) ToggleComplete(ctx context.Context, id, ownerID int64) (*tasks.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.OwnerID != ownerID {
		return nil, shared.ErrNotFound
	}
	row.Complete = !row.Complete
	copied := *row
	return &copied, nil
}

func (m *memRepo) Delete(ctx context.Context, id, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.OwnerID != ownerID {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memRepo) ListByOwner(ctx context.Context, ownerID int64) ([]tasks.Task, error) {
	return m.list(func(t *tasks.Task) bool { return t.OwnerID == ownerID }), nil
}

func (m *memRepo) ListAll(ctx context.Context) ([]tasks.Task, error) {
	return m.list(func(*tasks.Task) bool { return true }), nil
}

func (m *memRepo) list(keep func(*tasks.Task) bool) []tasks.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tasks.Task
	for _, row := range m.rows {
		if keep(row) {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
