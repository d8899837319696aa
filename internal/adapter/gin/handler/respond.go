package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "agent-rating-service/pkg/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Pagination represents pagination information
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	TotalPages int64 `json:"total_pages"`
}

// errorCode maps an HTTP status to its machine-readable error code.
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "already_exists"
	default:
		return "internal_error"
	}
}

// respondError converts usecase errors to appropriate HTTP responses.
// Internal error details never reach the response body.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := apperrors.StatusOf(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		message = "An internal error occurred"
	}

	c.JSON(status, ErrorResponse{
		Error:   errorCode(status),
		Message: message,
	})
}

// parseIDParam parses the :id path parameter. On failure it writes a 400
// response and returns ok=false.
func parseIDParam(c *gin.Context, log *zap.Logger) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		log.Warn("invalid id parameter", zap.String("id", idStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "ID must be a valid number",
		})
		return 0, false
	}
	return id, true
}

// parseLimitQuery parses an optional ?limit query parameter, returning 0
// when absent or unusable so the usecase applies its default.
func parseLimitQuery(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0
	}
	return limit
}

// parsePageQuery parses ?page and ?limit with the given defaults.
func parsePageQuery(c *gin.Context) (page, limit int64) {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}

	limit, err = strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
