package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrIntentResolution):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrUnbalancedIntent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrImmutable),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrIntentMissing),
		errors.Is(err, apperrors.ErrIntentStale),
		errors.Is(err, apperrors.ErrApprovalRequired),
		errors.Is(err, apperrors.ErrApprovalRejected),
		errors.Is(err, apperrors.ErrPostingInProgress),
		errors.Is(err, apperrors.ErrPreviousAttemptFailed),
		errors.Is(err, apperrors.ErrAlreadyReversed):
		return http.StatusConflict
	case errors.As(err, &appErr) && appErr.Code >= 400 && appErr.Code < 600:
		return appErr.Code
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError writes the error response of a failed service call.
// Server errors are logged and their cause is not exposed.
func respondWithError(c *gin.Context, logger *slog.Logger, err error, failureMsg string) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(failureMsg, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": failureMsg})
		return
	}

	logger.Warn(failureMsg, slog.String("error", err.Error()), slog.Int("status", status))
	body := gin.H{"error": err.Error()}
	if pe, ok := apperrors.AsPostingError(err); ok {
		body["kind"] = pe.Kind
		if pe.EntityID != "" {
			body["entityID"] = pe.EntityID
		}
		if pe.Expected != "" || pe.Actual != "" {
			body["expected"] = pe.Expected
			body["actual"] = pe.Actual
		}
	}
	c.JSON(status, body)
}

// actorFromContext returns the authenticated actor or aborts with 401.
func actorFromContext(c *gin.Context, logger *slog.Logger) (string, bool) {
	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return actorID, true
}
