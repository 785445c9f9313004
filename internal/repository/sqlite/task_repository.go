package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"yapa/internal/domain"
	"yapa/internal/repository"
)

const createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status INTEGER NOT NULL DEFAULT 0,
	priority INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	created_by INTEGER NOT NULL REFERENCES users(id),
	completed_at DATETIME NULL,
	completed_by INTEGER NULL REFERENCES users(id)
);
`

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTasksTable); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (int64, error) {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO tasks (name, description, status, priority, created_at, created_by, completed_at, completed_by)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Name,
		task.Description,
		int(task.Status),
		int(task.Priority),
		task.CreatedAt.UTC(),
		task.CreatedByID,
		nullTime(task.CompletedAt),
		nullInt64(task.CompletedByID),
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("task last insert id: %w", err)
	}
	task.ID = id
	return id, nil
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, description, status, priority, created_at, created_by, completed_at, completed_by
FROM tasks
WHERE id = ?`,
		id,
	)
	return scanTask(row)
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*domain.Task, error) {
	var (
		task        domain.Task
		status      int
		priority    int
		createdAt   time.Time
		completedAt sql.NullTime
		completedBy sql.NullInt64
	)

	if err := scanner.Scan(
		&task.ID,
		&task.Name,
		&task.Description,
		&status,
		&priority,
		&createdAt,
		&task.CreatedByID,
		&completedAt,
		&completedBy,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	task.CreatedAt = createdAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		task.CompletedAt = &t
	}
	if completedBy.Valid {
		v := completedBy.Int64
		task.CompletedByID = &v
	}

	return &task, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
