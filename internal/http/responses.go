package http

import (
	"context"
	"time"

	"yapa/internal/domain"
)

// UserResponse is the account representation returned to its owner,
// token included.
type UserResponse struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Token     string  `json:"token"`
	Avatar    *string `json:"avatar"`
}

// UserSummary is the public view of a user embedded in other resources.
type UserSummary struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Avatar    *string `json:"avatar"`
}

type TaskResponse struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Status      int          `json:"status"`
	Priority    int          `json:"priority"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at"`
	CreatedBy   *UserSummary `json:"created_by"`
	CompletedBy *UserSummary `json:"completed_by"`
}

type loginError struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

func (h *Handler) userResponse(ctx context.Context, user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Token:     user.Token,
		Avatar:    h.avatarURL(ctx, user),
	}
}

func (h *Handler) userSummary(ctx context.Context, user *domain.User) *UserSummary {
	if user == nil {
		return nil
	}
	return &UserSummary{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Avatar:    h.avatarURL(ctx, user),
	}
}

func (h *Handler) taskResponse(ctx context.Context, task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Name:        task.Name,
		Description: task.Description,
		Status:      int(task.Status),
		Priority:    int(task.Priority),
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
		CreatedBy:   h.userSummary(ctx, task.CreatedBy),
		CompletedBy: h.userSummary(ctx, task.CompletedBy),
	}
}

// avatarURL resolves the stored key to a URL. Resolution failures are logged
// and rendered as no avatar.
func (h *Handler) avatarURL(ctx context.Context, user *domain.User) *string {
	if !user.HasAvatar() {
		return nil
	}
	url, err := h.media.URL(ctx, user.Avatar)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Warn("resolve avatar url")
		return nil
	}
	return &url
}
