// Package datastore stores task and user documents in Google Cloud Datastore.
package datastore

import (
	"context"
	"errors"
	"time"

	gds "cloud.google.com/go/datastore"
	"github.com/google/uuid"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const (
	KindTask      = "tasks"
	KindUser      = "users"
	KindUserEmail = "user_emails"
)

// taskDoc is the stored shape of a task. Field names are part of the wire contract.
type taskDoc struct {
	Title       string    `datastore:"title"`
	Description string    `datastore:"description,noindex"`
	IsComplete  bool      `datastore:"isComplete"`
	UserID      string    `datastore:"userId"`
	CreatedAt   time.Time `datastore:"createdAt"`
	Seq         int64     `datastore:"seq"`
}

func (d *taskDoc) toDomain(id string) (*domain.Task, error) {
	task := &domain.Task{
		ID:          id,
		OwnerID:     d.UserID,
		Title:       d.Title,
		Description: d.Description,
		IsComplete:  d.IsComplete,
		CreatedAt:   d.CreatedAt.UTC(),
	}
	if err := domain.ValidateTaskRecord(task); err != nil {
		return nil, err
	}
	return task, nil
}

type taskRepository struct {
	client *gds.Client
}

// NewTaskRepository returns a Datastore-backed implementation of TaskRepository.
func NewTaskRepository(client *gds.Client) repository.TaskRepository {
	return &taskRepository{client: client}
}

func taskKey(id string) *gds.Key {
	return gds.NameKey(KindTask, id, nil)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}
	var doc taskDoc
	if err := r.client.Get(ctx, taskKey(id), &doc); err != nil {
		return nil, mapGetError(id, err)
	}
	return doc.toDomain(id)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if filter.OwnerID == "" {
		return nil, nil
	}
	query := gds.NewQuery(KindTask).
		FilterField("userId", "=", filter.OwnerID).
		Order("-createdAt").
		Order("-seq")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var docs []taskDoc
	keys, err := r.client.GetAll(ctx, query, &docs)
	if err != nil {
		var mismatch *gds.ErrFieldMismatch
		if errors.As(err, &mismatch) {
			return nil, domain.DecodeError("task", "", err)
		}
		return nil, err
	}

	tasks := make([]domain.Task, 0, len(docs))
	for i, key := range keys {
		task, err := docs[i].toDomain(key.Name)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	task.CreatedAt = storedTime(task.CreatedAt)

	doc := taskDoc{
		Title:       task.Title,
		Description: task.Description,
		IsComplete:  task.IsComplete,
		UserID:      task.OwnerID,
		CreatedAt:   task.CreatedAt,
		Seq:         time.Now().UnixNano(),
	}
	if _, err := r.client.Put(ctx, taskKey(task.ID), &doc); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}
	_, err := r.client.RunInTransaction(ctx, func(tx *gds.Transaction) error {
		key := taskKey(task.ID)
		var doc taskDoc
		if err := tx.Get(key, &doc); err != nil {
			return mapGetError(task.ID, err)
		}
		if doc.UserID != task.OwnerID {
			return domain.ErrTaskNotFound
		}
		doc.Title = task.Title
		doc.Description = task.Description
		_, err := tx.Put(key, &doc)
		return err
	})
	return err
}

func (r *taskRepository) SetComplete(ctx context.Context, id, ownerID string, expected bool) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}
	var updated taskDoc
	_, err := r.client.RunInTransaction(ctx, func(tx *gds.Transaction) error {
		key := taskKey(id)
		var doc taskDoc
		if err := tx.Get(key, &doc); err != nil {
			return mapGetError(id, err)
		}
		if doc.UserID != ownerID {
			return domain.ErrTaskNotFound
		}
		if doc.IsComplete != expected {
			return domain.ErrStaleTaskStatus
		}
		doc.IsComplete = !expected
		if _, err := tx.Put(key, &doc); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.toDomain(id)
}

func (r *taskRepository) Delete(ctx context.Context, id, ownerID string) error {
	if id == "" {
		return domain.ErrTaskNotFound
	}
	_, err := r.client.RunInTransaction(ctx, func(tx *gds.Transaction) error {
		key := taskKey(id)
		var doc taskDoc
		if err := tx.Get(key, &doc); err != nil {
			return mapGetError(id, err)
		}
		if doc.UserID != ownerID {
			return domain.ErrTaskNotFound
		}
		return tx.Delete(key)
	})
	return err
}

func (r *taskRepository) Ping(ctx context.Context) error {
	query := gds.NewQuery(KindTask).KeysOnly().Limit(1)
	_, err := r.client.GetAll(ctx, query, nil)
	return err
}

func mapGetError(id string, err error) error {
	if errors.Is(err, gds.ErrNoSuchEntity) {
		return domain.ErrTaskNotFound
	}
	var mismatch *gds.ErrFieldMismatch
	if errors.As(err, &mismatch) {
		return domain.DecodeError("task", id, err)
	}
	return err
}

// storedTime rounds t to the microsecond precision Datastore keeps, so the
// value returned by Create matches later reads.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
