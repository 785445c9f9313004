package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"yapa/internal/validation"
)

type TaskStatus int

const (
	TaskStatusTodo TaskStatus = iota
	TaskStatusInProgress
	TaskStatusCompleted
)

func (s TaskStatus) Valid() bool {
	return s >= TaskStatusTodo && s <= TaskStatusCompleted
}

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusTodo:
		return "TODO"
	case TaskStatusInProgress:
		return "IN_PROGRESS"
	case TaskStatusCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

type TaskPriority int

const (
	TaskPriorityLow TaskPriority = iota
	TaskPriorityMedium
	TaskPriorityHigh
	TaskPriorityCritical
)

func (p TaskPriority) Valid() bool {
	return p >= TaskPriorityLow && p <= TaskPriorityCritical
}

func (p TaskPriority) String() string {
	switch p {
	case TaskPriorityLow:
		return "LOW"
	case TaskPriorityMedium:
		return "MEDIUM"
	case TaskPriorityHigh:
		return "HIGH"
	case TaskPriorityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

const maxTaskNameLength = 255

// Task is a work item created by a user.
type Task struct {
	ID            int64
	Name          string
	Description   string
	Status        TaskStatus
	Priority      TaskPriority
	CreatedAt     time.Time
	CreatedByID   int64
	CompletedAt   *time.Time
	CompletedByID *int64

	CreatedBy   *User
	CompletedBy *User
}

// Yesterday returns midnight of the day before now, in now's location.
func Yesterday(now time.Time) time.Time {
	y, m, d := now.AddDate(0, 0, -1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// Validate checks the task's own invariants relative to now.
func (t *Task) Validate(now time.Time) error {
	var errs validation.Errors

	name := strings.TrimSpace(t.Name)
	switch {
	case name == "":
		errs.Add(validation.ScopeForm, "name", "cannot be blank")
	case utf8.RuneCountInString(name) > maxTaskNameLength:
		errs.Add(validation.ScopeForm, "name", "ensure this value has at most 255 characters")
	}
	if !t.Status.Valid() {
		errs.Add(validation.ScopeForm, "status", "invalid task status")
	}
	if !t.Priority.Valid() {
		errs.Add(validation.ScopeForm, "priority", "invalid task priority")
	}
	if t.CompletedAt != nil && t.CompletedAt.Before(Yesterday(now)) {
		errs.Add(validation.ScopeForm, "completed_at", "completion date cannot be earlier than yesterday")
	}

	return errs.Err()
}
