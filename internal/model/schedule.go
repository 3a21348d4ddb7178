package model

import "time"

// Schedule statuses. The lifecycle is generated -> published; publishing is
// a one-way transition.
const (
	ScheduleStatusGenerated = "generated"
	ScheduleStatusPublished = "published"
)

// Schedule is the persisted schedule for a single conference. At most one
// schedule exists per conference; regenerating replaces it wholesale.
type Schedule struct {
	ID           string `gorm:"primaryKey;size:64"`
	ConferenceID string `gorm:"uniqueIndex;size:64;not null"`
	CreatedBy    string `gorm:"size:64;not null"`
	CreatedAt    time.Time
	Status       string `gorm:"size:16;not null"`
	// Version advances by one on every successful mutation and backs the
	// optimistic-concurrency token handed to editors.
	Version     int64 `gorm:"not null"`
	PublishedAt *time.Time
	PublishedBy string `gorm:"size:64"`

	// Associations
	Items []ScheduleItem `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE"`
}

// ScheduleItem is one session: a set of submissions booked into a
// (room, time slot) pair.
type ScheduleItem struct {
	ID         string `gorm:"primaryKey;size:64"`
	ScheduleID string `gorm:"index;size:64;not null"`
	// Position preserves the deterministic assignment order across reloads.
	Position      int      `gorm:"not null"`
	RoomID        string   `gorm:"size:128;not null"`
	TimeSlotID    string   `gorm:"size:128;not null"`
	SubmissionIDs []string `gorm:"serializer:json"`
}
