package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id::text, user_id, title, description, is_complete, created_at`

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTaskNotFound
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if filter.OwnerID == "" {
		return nil, nil
	}
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	ORDER BY created_at DESC, seq DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.OwnerID, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, user_id, title, description, is_complete, created_at)
	VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
	RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.IsComplete,
		nullTime(task.CreatedAt),
	).Scan(&task.CreatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	if _, err := uuid.Parse(task.ID); err != nil {
		return domain.ErrTaskNotFound
	}

	const query = `
	UPDATE tasks
	SET title = $3,
		description = $4
	WHERE id = $1 AND user_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, task.ID, task.OwnerID, task.Title, task.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) SetComplete(ctx context.Context, id, ownerID string, expected bool) (*domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTaskNotFound
	}

	query := `
	UPDATE tasks
	SET is_complete = NOT is_complete
	WHERE id = $1 AND user_id = $2 AND is_complete = $3
	RETURNING ` + taskColumns

	task, err := scanTask(r.pool.QueryRow(ctx, query, id, ownerID, expected))
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, domain.ErrTaskNotFound) {
		return nil, err
	}

	// Nothing matched: tell a stale status apart from a missing or foreign record.
	const probe = `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, probe, id, ownerID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrStaleTaskStatus
	}
	return nil, domain.ErrTaskNotFound
}

func (r *taskRepository) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrTaskNotFound
	}
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task

	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.IsComplete,
		&task.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.CreatedAt = task.CreatedAt.UTC()
	if err := domain.ValidateTaskRecord(&task); err != nil {
		return nil, err
	}
	return &task, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 500
	}
	return limit
}
