package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"yapa/internal/auth"
	"yapa/internal/service"
	"yapa/internal/storage"
	"yapa/internal/validation"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	tasks  service.TaskService
	auth   *auth.Authenticator
	media  storage.Service
	logger logrus.FieldLogger
}

func NewHandler(users service.UserService, tasks service.TaskService, authenticator *auth.Authenticator, media storage.Service, logger logrus.FieldLogger) *Handler {
	validation.UseFormFieldNames()
	return &Handler{
		users:  users,
		tasks:  tasks,
		auth:   authenticator,
		media:  media,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestID(), requestLogger(h.logger), metricsMiddleware(), corsMiddleware())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
	router.GET("/metrics", h.require(auth.Superuser), gin.WrapH(promhttp.Handler()))

	users := router.Group("/users")
	{
		users.POST("/", h.register)
		users.POST("/login", h.login)
		users.POST("/avatar", h.require(auth.Authenticated), h.uploadAvatar)
		users.GET("/me", h.require(auth.Authenticated), h.me)
		users.GET("/", h.require(auth.Staff), h.listUsers)
	}

	tasks := router.Group("/tasks", h.require(auth.Authenticated))
	{
		tasks.POST("/", h.createTask)
	}

	if local, ok := h.media.(*storage.LocalService); ok && strings.HasPrefix(local.BaseURL(), "/") {
		router.Static(local.BaseURL(), local.Root())
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// errorResponse is the envelope of every error body.
type errorResponse struct {
	Detail any `json:"detail"`
}

const (
	detailUnauthorized = "Unauthorized"
	detailInternal     = "Internal server error"
)

// writeError renders field errors as 422 and anything else as 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	if list, ok := validation.As(err); ok {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Detail: list})
		return
	}
	h.logger.WithError(err).WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.FullPath(),
		"request_id": c.GetString(requestIDKey),
	}).Error("request failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Detail: detailInternal})
}

func (h *Handler) writeUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Detail: detailUnauthorized})
}
