package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"yapa/internal/domain"
	"yapa/internal/repository"
)

const createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status SMALLINT NOT NULL DEFAULT 0,
	priority SMALLINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	created_by BIGINT NOT NULL REFERENCES users(id),
	completed_at TIMESTAMPTZ NULL,
	completed_by BIGINT NULL REFERENCES users(id)
);
`

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &TaskRepository{pool: pool}
}

func (r *TaskRepository) Init(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createTasksTable); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (int64, error) {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO tasks (name, description, status, priority, created_at, created_by, completed_at, completed_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`,
		task.Name,
		task.Description,
		int16(task.Status),
		int16(task.Priority),
		task.CreatedAt.UTC(),
		task.CreatedByID,
		task.CompletedAt,
		task.CompletedByID,
	).Scan(&task.ID)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return task.ID, nil
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (*domain.Task, error) {
	var (
		task     domain.Task
		status   int16
		priority int16
	)
	err := r.pool.QueryRow(ctx, `
SELECT id, name, description, status, priority, created_at, created_by, completed_at, completed_by
FROM tasks
WHERE id = $1`,
		id,
	).Scan(
		&task.ID,
		&task.Name,
		&task.Description,
		&status,
		&priority,
		&task.CreatedAt,
		&task.CreatedByID,
		&task.CompletedAt,
		&task.CompletedByID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	return &task, nil
}
