package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yapa/internal/domain"
	"yapa/internal/service"
	"yapa/internal/validation"
)

type createTaskRequest struct {
	Name        string `form:"name" json:"name" binding:"required,max=255"`
	Description string `form:"description" json:"description"`
	Status      int    `form:"status" json:"status" binding:"min=0,max=2"`
	Priority    int    `form:"priority" json:"priority" binding:"min=0,max=3"`
}

// createTask handles POST /tasks/. Status and priority default to TODO and
// LOW when omitted.
func (h *Handler) createTask(c *gin.Context) {
	user, _ := currentUser(c)

	var req createTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		h.writeError(c, validation.FromBinding(validation.ScopeForm, err))
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), user, service.TaskInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		Priority:    domain.TaskPriority(req.Priority),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.taskResponse(c.Request.Context(), task))
}
