package handler

import (
	"errors"
	"io"
	"net/http"

	"workflow/internal/middleware"
	"workflow/internal/service"
	"workflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// adminConfirmRequest is the body of every destructive request.
type adminConfirmRequest struct {
	AdminPassword string `json:"admin_password"`
}

// respondError maps service errors onto the envelope. Unexpected errors are
// logged and replaced by fallback.
func respondError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		code := http.StatusBadRequest
		if vErr.Conflict {
			code = http.StatusConflict
		}
		c.JSON(code, response.Error(code, vErr.Message))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid email or password."))
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required."))
	case errors.Is(err, service.ErrInvalidAdminPassword):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Invalid admin password."))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied."))
	default:
		_ = c.Error(err)
		log.Error(fallback,
			zap.String("request_id", c.GetString(middleware.ContextRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, fallback))
	}
}

// currentActor returns the session's actor or writes a 401.
func currentActor(c *gin.Context) (service.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		respondError(c, nil, service.ErrUnauthenticated, "")
		return service.Actor{}, false
	}
	return actor, true
}

// bindAdminPassword reads the optional admin confirmation body. An empty body
// yields an empty password, which the service rejects.
func bindAdminPassword(c *gin.Context) (string, bool) {
	var req adminConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return "", false
	}
	return req.AdminPassword, true
}
