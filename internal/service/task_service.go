package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"yapa/internal/domain"
	"yapa/internal/repository"
)

// TaskInput carries the caller supplied task fields.
type TaskInput struct {
	Name        string
	Description string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
}

// TaskService coordinates task level operations backed by repositories.
type TaskService interface {
	CreateTask(ctx context.Context, creator *domain.User, input TaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
}

type taskService struct {
	tasks  repository.TaskRepository
	users  repository.UserRepository
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, logger logrus.FieldLogger) TaskService {
	return &taskService{
		tasks:  tasks,
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

func (s *taskService) CreateTask(ctx context.Context, creator *domain.User, input TaskInput) (*domain.Task, error) {
	if creator == nil {
		return nil, errors.New("task creator is required")
	}

	now := s.now()
	task := &domain.Task{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Status:      input.Status,
		Priority:    input.Priority,
		CreatedAt:   now.UTC(),
		CreatedByID: creator.ID,
	}
	if err := task.Validate(now); err != nil {
		return nil, err
	}

	if _, err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"task_id": task.ID, "user_id": creator.ID}).Info("task created")

	return s.GetTask(ctx, task.ID)
}

// GetTask loads a task together with its creator and completer.
func (s *taskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	creator, err := s.users.GetByID(ctx, task.CreatedByID)
	if err != nil {
		return nil, fmt.Errorf("load task creator: %w", err)
	}
	task.CreatedBy = sanitizeUser(creator)

	if task.CompletedByID != nil {
		completer, err := s.users.GetByID(ctx, *task.CompletedByID)
		if err != nil {
			return nil, fmt.Errorf("load task completer: %w", err)
		}
		task.CompletedBy = sanitizeUser(completer)
	}

	return task, nil
}
