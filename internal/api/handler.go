package api

import (
	"time"

	"conference-schedule-backend/internal/model"
	"conference-schedule-backend/internal/notification"
	"conference-schedule-backend/internal/schedule"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc    *schedule.Service
	fanout *notification.Fanout
	gate   AdminGate
}

// NewHandler creates a new API handler.
func NewHandler(svc *schedule.Service, fanout *notification.Fanout, gate AdminGate) *Handler {
	return &Handler{
		svc:    svc,
		fanout: fanout,
		gate:   gate,
	}
}

// scheduleItemResponse is the admin view of one schedule item.
type scheduleItemResponse struct {
	ID            string   `json:"id"`
	RoomID        string   `json:"roomId"`
	TimeSlotID    string   `json:"timeSlotId"`
	SubmissionIDs []string `json:"submissionIds"`
}

// scheduleResponse is the admin view of a schedule, including the
// lastUpdatedAt token editors must echo back on item edits.
type scheduleResponse struct {
	ID            string                 `json:"id"`
	ConferenceID  string                 `json:"conferenceId"`
	Status        string                 `json:"status"`
	CreatedBy     string                 `json:"createdBy"`
	CreatedAt     time.Time              `json:"createdAt"`
	PublishedAt   *time.Time             `json:"publishedAt"`
	PublishedBy   string                 `json:"publishedBy,omitempty"`
	LastUpdatedAt string                 `json:"lastUpdatedAt"`
	Items         []scheduleItemResponse `json:"items"`
}

func toScheduleResponse(s *model.Schedule) scheduleResponse {
	items := make([]scheduleItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, scheduleItemResponse{
			ID:            item.ID,
			RoomID:        item.RoomID,
			TimeSlotID:    item.TimeSlotID,
			SubmissionIDs: item.SubmissionIDs,
		})
	}
	return scheduleResponse{
		ID:            s.ID,
		ConferenceID:  s.ConferenceID,
		Status:        s.Status,
		CreatedBy:     s.CreatedBy,
		CreatedAt:     s.CreatedAt,
		PublishedAt:   s.PublishedAt,
		PublishedBy:   s.PublishedBy,
		LastUpdatedAt: schedule.VersionToken(s),
		Items:         items,
	}
}
