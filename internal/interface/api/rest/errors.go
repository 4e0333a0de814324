package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filedrive/internal/common"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrIDSpaceExhausted), errors.Is(err, common.ErrCodeSpaceExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrResourceExhausted):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status of its kind. Server side failures
// are logged and their detail is not shown to the client.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error(op+"() error", zap.Error(err))
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
