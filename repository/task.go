package repository

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// TaskFilter scopes a listing to one owner. OwnerID is mandatory.
type TaskFilter struct {
	OwnerID string
	Limit   int
	Offset  int
}

// TaskRepository is the document-store contract for task records.
// Implementations return domain.ErrTaskNotFound for missing or foreign records
// and decode every record through domain.ValidateTaskRecord.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	// List returns the owner's tasks ordered by createdAt descending, newest insert first on ties.
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// Update writes title and description only, scoped by task.ID and task.OwnerID.
	Update(ctx context.Context, task *domain.Task) error
	// SetComplete flips isComplete to !expected only while the stored value equals expected.
	// A mismatch returns domain.ErrStaleTaskStatus.
	SetComplete(ctx context.Context, id, ownerID string, expected bool) (*domain.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
	Ping(ctx context.Context) error
}
