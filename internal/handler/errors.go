package handler

import (
	"errors"
	"net/http"

	"dailyreport/internal/middleware"
	"dailyreport/internal/service"
	"dailyreport/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// statusFor maps service error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}
	c.JSON(status, response.Error(status, msg))
}

// currentUser reads the caller set by the auth middleware.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return uuid.Nil, false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}
