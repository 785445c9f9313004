package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"yapa/internal/service"
	"yapa/internal/validation"
)

// register handles POST /users/.
func (h *Handler) register(c *gin.Context) {
	var form validation.Registration
	if err := c.ShouldBind(&form); err != nil {
		h.writeError(c, validation.FromBinding(validation.ScopeForm, err))
		return
	}

	user, err := h.users.Register(c.Request.Context(), form)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.userResponse(c.Request.Context(), user))
}

// login handles POST /users/login. Unknown emails and wrong passwords are
// reported separately under the field they concern.
func (h *Handler) login(c *gin.Context) {
	var form validation.Login
	if err := c.ShouldBind(&form); err != nil {
		h.writeError(c, validation.FromBinding(validation.ScopeForm, err))
		return
	}
	if err := form.Validate(); err != nil {
		h.writeError(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), form.Email, form.Password)
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		c.JSON(http.StatusUnauthorized, errorResponse{Detail: loginError{
			Loc: []string{validation.ScopeForm, "email"},
			Msg: "invalid email",
		}})
		return
	case errors.Is(err, service.ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, errorResponse{Detail: loginError{
			Loc: []string{validation.ScopeForm, "password"},
			Msg: "invalid password",
		}})
		return
	case err != nil:
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.userResponse(c.Request.Context(), user))
}

// uploadAvatar handles POST /users/avatar with a multipart "avatar" file.
func (h *Handler) uploadAvatar(c *gin.Context) {
	user, _ := currentUser(c)

	header, err := c.FormFile("avatar")
	if err != nil {
		h.writeError(c, validation.Errors{
			validation.NewFieldError(validation.ScopeFile, "avatar", "field required"),
		})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer file.Close()

	updated, err := h.users.UpdateAvatar(c.Request.Context(), user.ID, service.AvatarUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.userResponse(c.Request.Context(), updated))
}

// me handles GET /users/me, reloading the account from the store.
func (h *Handler) me(c *gin.Context) {
	current, _ := currentUser(c)
	user, err := h.users.GetByID(c.Request.Context(), current.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.userResponse(c.Request.Context(), user))
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]*UserSummary, 0, len(users))
	for i := range users {
		out = append(out, h.userSummary(c.Request.Context(), &users[i]))
	}
	c.JSON(http.StatusOK, out)
}
