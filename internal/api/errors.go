package api

import (
	"errors"
	"net/http"

	"asur-wears/internal/media"
	"asur-wears/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrRateLimited, http.StatusTooManyRequests},
	{service.ErrInvalidTransition, http.StatusConflict},
	{service.ErrInvalidCoupon, http.StatusBadRequest},
	{service.ErrNotServiceable, http.StatusBadRequest},
	{media.ErrTooLarge, http.StatusRequestEntityTooLarge},
	{media.ErrUnsupportedType, http.StatusUnsupportedMediaType},
	{media.ErrNotFound, http.StatusNotFound},
	{media.ErrInvalidID, http.StatusBadRequest},
}

// statusFor maps a service error onto an HTTP status
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Server errors are logged and replaced
// with a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondBindError reports a malformed request body or query
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]gin.H, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, gin.H{
				"field": fe.Namespace(),
				"rule":  fe.Tag(),
				"param": fe.Param(),
			})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": details,
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}
