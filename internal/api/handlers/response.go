// internal/api/handlers/response.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"logiledger-api-server/internal/api/middleware"
	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/service"
)

// statusFor maps a service error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the failure envelope. Unexpected errors are logged and
// reported with a generic message.
func respondError(c *gin.Context, err error, op string) {
	status := statusFor(err)
	msg, ok := service.Message(err)
	if !ok || status == http.StatusInternalServerError {
		logrus.WithError(err).WithField("op", op).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"success": false, "message": msg})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}
