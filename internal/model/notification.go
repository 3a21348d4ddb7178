package model

import "time"

// Notification types and channels. Only the email channel is actively
// dispatched; in_app records are created for other consumers to read.
const (
	NotificationTypeFinalSchedule = "final_schedule"

	ChannelEmail = "email"
	ChannelInApp = "in_app"

	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

// NotificationRecord is one author-facing notification created at publish
// time, mutated in place by dispatch and retry.
type NotificationRecord struct {
	ID            string `gorm:"primaryKey;size:64"`
	Type          string `gorm:"size:32;not null;index"`
	Channel       string `gorm:"size:16;not null"`
	ConferenceID  string `gorm:"index;size:64;not null"`
	AuthorID      string `gorm:"size:128;not null"`
	PaperID       string `gorm:"size:64;not null"`
	PublishedAt   time.Time
	Timezone      string `gorm:"size:64"`
	Status        string `gorm:"size:16;not null;index"`
	RetryCount    int    `gorm:"not null"`
	FailureReason string `gorm:"size:512"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NotificationAuditEntry records one failed dispatch for operators.
type NotificationAuditEntry struct {
	ID           int64  `gorm:"autoIncrement;primaryKey"`
	ConferenceID string `gorm:"index;size:64;not null"`
	AuthorID     string `gorm:"size:128;not null"`
	PaperID      string `gorm:"size:64;not null"`
	Reason       string `gorm:"size:512"`
	CreatedAt    time.Time
}
