package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"S2Grid-App/internal/domain/geocell"
	"S2Grid-App/internal/domain/repository"
	"S2Grid-App/internal/usecase"
)

// ValidationError はバリデーションエラーを表す
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// respondBindError リクエストボディを解析できなかった
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": "Invalid JSON format: " + err.Error(),
	})
}

// respondError エラーの種類をHTTPステータスに対応付けて返す
func respondError(c *gin.Context, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "field": ve.Field, "message": ve.Message})
	case errors.Is(err, usecase.ErrInvalidGeofence):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
	case errors.Is(err, repository.ErrGeofenceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
	case errors.Is(err, geocell.ErrCellBudgetExceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "too_many_cells", "message": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "timeout", "message": err.Error()})
	case errors.Is(err, context.Canceled):
		// クライアントが切断済み
		c.Status(499)
	case errors.Is(err, geocell.ErrInvariantViolation):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invariant_violation", "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
	}
}
