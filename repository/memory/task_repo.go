// Package memory provides in-process repository implementations used by tests
// and by the "memory" store driver.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type taskRecord struct {
	task domain.Task
	seq  int64
}

// TaskRepository keeps task records in a map guarded by a mutex.
type TaskRepository struct {
	mu      sync.RWMutex
	records map[string]*taskRecord
	seq     int64

	// Err, when set, is returned by every operation to simulate an unreachable store.
	Err error
}

// NewTaskRepository returns an empty in-memory task store.
func NewTaskRepository() *TaskRepository {
	return &TaskRepository{records: make(map[string]*taskRecord)}
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return decode(rec)
}

func (r *TaskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if filter.OwnerID == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*taskRecord, 0, len(r.records))
	for _, rec := range r.records {
		if rec.task.OwnerID == filter.OwnerID {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq > b.seq
	})

	matched = page(matched, filter.Limit, filter.Offset)
	tasks := make([]domain.Task, 0, len(matched))
	for _, rec := range matched {
		task, err := decode(rec)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if _, exists := r.records[task.ID]; exists {
		return nil, domain.NewError(domain.ErrCodeConflict, "task id already exists")
	}
	r.seq++
	r.records[task.ID] = &taskRecord{task: *task, seq: r.seq}
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	if r.Err != nil {
		return r.Err
	}
	if task == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[task.ID]
	if !ok || !rec.task.OwnedBy(task.OwnerID) {
		return domain.ErrTaskNotFound
	}
	rec.task.Title = task.Title
	rec.task.Description = task.Description
	return nil
}

func (r *TaskRepository) SetComplete(ctx context.Context, id, ownerID string, expected bool) (*domain.Task, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || !rec.task.OwnedBy(ownerID) {
		return nil, domain.ErrTaskNotFound
	}
	if rec.task.IsComplete != expected {
		return nil, domain.ErrStaleTaskStatus
	}
	rec.task.IsComplete = !expected
	return decode(rec)
}

func (r *TaskRepository) Delete(ctx context.Context, id, ownerID string) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || !rec.task.OwnedBy(ownerID) {
		return domain.ErrTaskNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *TaskRepository) Ping(ctx context.Context) error {
	return r.Err
}

// Put stores a raw record without validation. Tests use it to seed malformed data.
func (r *TaskRepository) Put(task domain.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.records[task.ID] = &taskRecord{task: task, seq: r.seq}
}

func decode(rec *taskRecord) (*domain.Task, error) {
	task := rec.task
	if err := domain.ValidateTaskRecord(&task); err != nil {
		return nil, err
	}
	return &task, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
