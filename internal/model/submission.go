package model

import "time"

// Submission is a locally mirrored paper submission. The roster sync service
// keeps this table up to date from the upstream paper-management system.
type Submission struct {
	ID           string   `gorm:"primaryKey;size:64"`
	ConferenceID string   `gorm:"index;size:64;not null"`
	Title        string   `gorm:"size:512"`
	Status       string   `gorm:"size:32;not null"`
	AuthorIDs    []string `gorm:"serializer:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SchedulingParameters are the admin-supplied inputs for a generation run.
type SchedulingParameters struct {
	ConferenceID         string   `gorm:"primaryKey;size:64"`
	Dates                []string `gorm:"serializer:json"`
	SessionLengthMinutes int
	DayStart             string   `gorm:"size:8"`
	DayEnd               string   `gorm:"size:8"`
	Rooms                []string `gorm:"serializer:json"`
	UpdatedAt            time.Time
}
