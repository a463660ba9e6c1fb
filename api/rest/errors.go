package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"socialnet/apperr"
)

// statusOf maps apperr codes to HTTP statuses. Business rejections are 4xx
// with their reason string; everything unknown is a 500.
func statusOf(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument, apperr.CodeFailedPrecondition, apperr.CodeResourceExhausted:
		return http.StatusBadRequest
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodePermissionDenied:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a coded error. Internal causes are never leaked to the
// client.
func writeError(c *gin.Context, err error) {
	status := statusOf(apperr.CodeOf(err))
	msg := "internal error"
	var e *apperr.Error
	if errors.As(err, &e) && status < http.StatusInternalServerError {
		msg = e.Message
	}
	c.JSON(status, gin.H{"error": msg})
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
