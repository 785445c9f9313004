package repository

import (
	"context"

	"yapa/internal/domain"
)

// TaskRepository exposes persistence operations for Task aggregates.
type TaskRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, task *domain.Task) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Task, error)
}
