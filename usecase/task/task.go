package task

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	appLogger "github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

// UseCase is the owner-scoped task repository used by every front end.
// The identity is read from the IdentitySource on each call, never captured at construction.
type UseCase struct {
	tasks    repository.TaskRepository
	identity usecase.IdentitySource
	logger   *zap.Logger
	now      func() time.Time
}

func New(tasks repository.TaskRepository, identity usecase.IdentitySource, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		identity: identity,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the creation timestamp source.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	if now != nil {
		uc.now = now
	}
	return uc
}

func (uc *UseCase) Add(ctx context.Context, title, description string) (*domain.Task, error) {
	owner, ok := uc.owner(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	title, err := domain.NormalizeTitle(title)
	if err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, &domain.Task{
		OwnerID:     owner,
		Title:       title,
		Description: description,
		IsComplete:  false,
		CreatedAt:   uc.now().UTC(),
	})
	if err != nil {
		appLogger.WithRequestID(ctx, uc.logger).Error("task create failed", zap.String("user_id", owner), zap.Error(err))
		return nil, domain.Unavailable("could not save task", err)
	}
	return created, nil
}

// List returns the caller's tasks, newest first. Without an identity it returns an empty list.
func (uc *UseCase) List(ctx context.Context) ([]domain.Task, error) {
	owner, ok := uc.owner(ctx)
	if !ok {
		return []domain.Task{}, nil
	}
	tasks, err := uc.tasks.List(ctx, repository.TaskFilter{OwnerID: owner})
	if err != nil {
		appLogger.WithRequestID(ctx, uc.logger).Error("task list failed", zap.String("user_id", owner), zap.Error(err))
		return nil, domain.Unavailable("could not load tasks", err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// Get returns the task when it exists and belongs to the caller. Any other record is
// reported as absent so foreign ids cannot be probed.
func (uc *UseCase) Get(ctx context.Context, id string) (*domain.Task, bool, error) {
	owner, ok := uc.owner(ctx)
	if !ok {
		return nil, false, nil
	}
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, false, nil
		}
		return nil, false, domain.Unavailable("could not load task", err)
	}
	if !task.OwnedBy(owner) {
		appLogger.WithRequestID(ctx, uc.logger).Warn("cross-owner task lookup", zap.String("user_id", owner), zap.String("task_id", id))
		return nil, false, nil
	}
	return task, true, nil
}

// Update overwrites title and description. Completion state, owner and createdAt are untouched.
func (uc *UseCase) Update(ctx context.Context, id, title, description string) error {
	owner, ok := uc.owner(ctx)
	if !ok {
		return domain.ErrUnauthenticated
	}
	title, err := domain.NormalizeTitle(title)
	if err != nil {
		return err
	}
	err = uc.tasks.Update(ctx, &domain.Task{
		ID:          id,
		OwnerID:     owner,
		Title:       title,
		Description: description,
	})
	if err != nil {
		return domain.Unavailable("could not update task", err)
	}
	return nil
}

// ToggleComplete sets isComplete to !currentStatus when the stored status still matches
// currentStatus. A stale view returns domain.ErrStaleTaskStatus.
func (uc *UseCase) ToggleComplete(ctx context.Context, id string, currentStatus bool) (*domain.Task, error) {
	owner, ok := uc.owner(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	task, err := uc.tasks.SetComplete(ctx, id, owner, currentStatus)
	if err != nil {
		if errors.Is(err, domain.ErrStaleTaskStatus) {
			uc.logger.Info("stale toggle rejected", zap.String("task_id", id), zap.Bool("expected", currentStatus))
		}
		return nil, domain.Unavailable("could not update task", err)
	}
	return task, nil
}

// Delete removes the task. Missing and foreign ids are a no-op.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	owner, ok := uc.owner(ctx)
	if !ok {
		return domain.ErrUnauthenticated
	}
	if err := uc.tasks.Delete(ctx, id, owner); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil
		}
		return domain.Unavailable("could not delete task", err)
	}
	return nil
}

// Stats summarizes the caller's tasks for the dashboard.
func (uc *UseCase) Stats(ctx context.Context) (domain.Stats, error) {
	tasks, err := uc.List(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Summarize(tasks), nil
}

func (uc *UseCase) owner(ctx context.Context) (string, bool) {
	if uc.identity == nil {
		return "", false
	}
	identity, ok := uc.identity.ActiveIdentity(ctx)
	if !ok {
		return "", false
	}
	return identity.UserID, true
}
