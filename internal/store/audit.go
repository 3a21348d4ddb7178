package store

import (
	"context"
	"time"

	"conference-schedule-backend/internal/model"
	"conference-schedule-backend/internal/notification"
)

// NotificationAudit adapts the store to the fan-out's audit-log collaborator.
type NotificationAudit struct {
	store Store
}

// NewNotificationAudit creates the store-backed audit log.
func NewNotificationAudit(s Store) *NotificationAudit {
	return &NotificationAudit{store: s}
}

// LogNotificationFailure records one failed dispatch.
func (a *NotificationAudit) LogNotificationFailure(ctx context.Context, failure notification.Failure) error {
	return a.store.CreateAuditEntry(ctx, &model.NotificationAuditEntry{
		ConferenceID: failure.ConferenceID,
		AuthorID:     failure.AuthorID,
		PaperID:      failure.PaperID,
		Reason:       failure.Reason,
		CreatedAt:    time.Now(),
	})
}
