package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"conference-schedule-backend/internal/schedule"
)

// statusForCode maps schedule error codes onto HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case schedule.CodeMissingParameters, schedule.CodeUnsatisfiableConstraints:
		return http.StatusUnprocessableEntity
	case schedule.CodeConfirmReplaceRequired, schedule.CodeConflict, schedule.CodeAlreadyPublished:
		return http.StatusConflict
	case schedule.CodeStaleEdit:
		return http.StatusPreconditionFailed
	case schedule.CodeItemNotFound, schedule.CodeScheduleNotFound,
		schedule.CodePublishTargetNotFound, schedule.CodeNotPublished:
		return http.StatusNotFound
	case schedule.CodeRetrievalFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a typed schedule error, or a generic 500 for anything
// unexpected. Underlying storage messages never reach the response body.
func writeError(c *gin.Context, err error) {
	var se *schedule.Error
	if errors.As(err, &se) {
		body := gin.H{"error": se.Code}
		if len(se.MissingFields) > 0 {
			body["missingFields"] = se.MissingFields
		}
		if se.Retryable {
			body["retryable"] = true
		}
		c.AbortWithStatusJSON(statusForCode(se.Code), body)
		return
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg("unexpected error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}
