package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"yapa/internal/auth"
	"yapa/internal/domain"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	currentUserKey  = "current_user"
)

// requestID reuses the caller's X-Request-ID or mints one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := logger.WithField(requestIDKey, c.GetString(requestIDKey))
		entry.Debugf("request started: %s %s", c.Request.Method, c.Request.URL.Path)

		c.Next()

		fields := logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if user, ok := currentUser(c); ok {
			fields["user_id"] = user.ID
		}
		entry.WithFields(fields).Info("request completed")
	}
}

// require resolves the bearer token before any body binding so that
// unauthenticated requests are rejected with 401 regardless of payload.
func (h *Handler) require(allow auth.Predicate) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.auth.Authorize(c.Request.Context(), c.GetHeader("Authorization"), allow)
		if err != nil {
			h.writeError(c, err)
			c.Abort()
			return
		}
		if user == nil {
			h.writeUnauthorized(c)
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	value, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok && user != nil
}
