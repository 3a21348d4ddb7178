package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"conference-schedule-backend/internal/schedule"
)

type generateRequest struct {
	ConfirmReplace bool `json:"confirmReplace"`
}

// GenerateSchedule handles POST /api/admin/conferences/:conference_id/schedule/generate.
func (h *Handler) GenerateSchedule(c *gin.Context) {
	var req generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	sched, err := h.svc.Generate(c.Request.Context(), c.Param("conference_id"), req.ConfirmReplace, c.GetString(actorKey))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toScheduleResponse(sched))
}

// GetSchedule handles GET /api/admin/conferences/:conference_id/schedule.
func (h *Handler) GetSchedule(c *gin.Context) {
	sched, err := h.svc.GetSchedule(c.Request.Context(), c.Param("conference_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toScheduleResponse(sched))
}

// GetItem handles GET /api/admin/conferences/:conference_id/schedule/items/:item_id.
func (h *Handler) GetItem(c *gin.Context) {
	item, err := h.svc.GetItem(c.Request.Context(), c.Param("conference_id"), c.Param("item_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, scheduleItemResponse{
		ID:            item.ID,
		RoomID:        item.RoomID,
		TimeSlotID:    item.TimeSlotID,
		SubmissionIDs: item.SubmissionIDs,
	})
}

type updateItemRequest struct {
	RoomID        string `json:"roomId" binding:"required"`
	TimeSlotID    string `json:"timeSlotId" binding:"required"`
	LastUpdatedAt string `json:"lastUpdatedAt"`
}

// UpdateItem handles PUT /api/admin/conferences/:conference_id/schedule/items/:item_id.
func (h *Handler) UpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sched, err := h.svc.UpdateItem(c.Request.Context(), c.Param("conference_id"), c.Param("item_id"), schedule.UpdateItemRequest{
		RoomID:        req.RoomID,
		TimeSlotID:    req.TimeSlotID,
		LastUpdatedAt: req.LastUpdatedAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toScheduleResponse(sched))
}

type publishRequest struct {
	Timezone string `json:"timezone"`
}

// PublishSchedule handles POST /api/admin/conferences/:conference_id/schedule/publish.
// Publication succeeds regardless of notification outcomes; dispatch failures
// are captured per record and reported through the audit log.
func (h *Handler) PublishSchedule(c *gin.Context) {
	var req publishRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	conferenceID := c.Param("conference_id")
	sched, err := h.svc.Publish(c.Request.Context(), conferenceID, c.GetString(actorKey))
	if err != nil {
		writeError(c, err)
		return
	}

	enqueued := 0
	failed := 0
	records, err := h.fanout.Enqueue(c.Request.Context(), conferenceID, *sched.PublishedAt, req.Timezone)
	if err != nil {
		// The schedule is already published; notification problems must not
		// roll that back or fail the request.
		log.Error().Err(err).Str("conference_id", conferenceID).Msg("notification enqueue failed after publish")
	} else {
		enqueued = len(records)
		_, failed = h.fanout.DispatchAll(c.Request.Context(), records)
	}

	c.JSON(http.StatusOK, gin.H{
		"schedule":                   toScheduleResponse(sched),
		"notificationsEnqueuedCount": enqueued,
		"notificationsFailedCount":   failed,
	})
}

// RetryNotifications handles POST /api/admin/notifications/final-schedule/retry.
func (h *Handler) RetryNotifications(c *gin.Context) {
	attempted, failed, err := h.fanout.RetryFailedFinalScheduleNotifications(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempted": attempted, "failed": failed})
}
