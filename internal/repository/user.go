package repository

import (
	"context"

	"yapa/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByToken(ctx context.Context, token string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateAvatar(ctx context.Context, id int64, avatar string) error
	List(ctx context.Context) ([]domain.User, error)
}
