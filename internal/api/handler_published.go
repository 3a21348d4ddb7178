package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conference-schedule-backend/internal/schedule"
)

// GetPublishedSchedule handles GET /api/conferences/:conference_id/schedule,
// the public attendee-facing view. Filters that match nothing yield an empty
// entries list, not an error.
func (h *Handler) GetPublishedSchedule(c *gin.Context) {
	published, err := h.svc.GetPublishedSchedule(c.Request.Context(), c.Param("conference_id"), schedule.PublishedFilter{
		Day:     c.Query("day"),
		Session: c.Query("session"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, published)
}
