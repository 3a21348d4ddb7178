package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"conference-schedule-backend/internal/model"
)

// Store defines the full persistence surface of the backend. The schedule
// service and notification fan-out each consume their own narrow slice of it.
type Store interface {
	GetSchedule(ctx context.Context, conferenceID string) (*model.Schedule, error)
	SaveSchedule(ctx context.Context, schedule *model.Schedule) error

	GetParameters(ctx context.Context, conferenceID string) (*model.SchedulingParameters, error)
	SaveParameters(ctx context.Context, params *model.SchedulingParameters) error

	ListAccepted(ctx context.Context, conferenceID string) ([]model.Submission, error)
	UpsertSubmissions(ctx context.Context, submissions []model.Submission) error

	CreateNotifications(ctx context.Context, records []model.NotificationRecord) error
	UpdateNotification(ctx context.Context, record *model.NotificationRecord) error
	ListFailedNotifications(ctx context.Context, notificationType string) ([]model.NotificationRecord, error)

	CreateAuditEntry(ctx context.Context, entry *model.NotificationAuditEntry) error

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for wiring and tests.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// GetSchedule loads the schedule for a conference with its items in
// assignment order. Returns (nil, nil) when no schedule exists.
func (s *gormStore) GetSchedule(ctx context.Context, conferenceID string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := s.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Where("conference_id = ?", conferenceID).
		First(&schedule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule for conference %s: %w", conferenceID, err)
	}
	return &schedule, nil
}

// SaveSchedule replaces the conference's schedule and its items wholesale in
// one transaction, so a failed write leaves the prior schedule fully intact.
func (s *gormStore) SaveSchedule(ctx context.Context, schedule *model.Schedule) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior model.Schedule
		err := tx.Select("id").Where("conference_id = ?", schedule.ConferenceID).First(&prior).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if prior.ID != "" {
			if err := tx.Where("schedule_id = ?", prior.ID).Delete(&model.ScheduleItem{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&model.Schedule{}, "id = ?", prior.ID).Error; err != nil {
				return err
			}
		}
		return tx.Create(schedule).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save schedule for conference %s: %w", schedule.ConferenceID, err)
	}
	return nil
}

// GetParameters returns (nil, nil) when no parameters are configured.
func (s *gormStore) GetParameters(ctx context.Context, conferenceID string) (*model.SchedulingParameters, error) {
	var params model.SchedulingParameters
	err := s.db.WithContext(ctx).Where("conference_id = ?", conferenceID).First(&params).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduling parameters for conference %s: %w", conferenceID, err)
	}
	return &params, nil
}

func (s *gormStore) SaveParameters(ctx context.Context, params *model.SchedulingParameters) error {
	return s.db.WithContext(ctx).Save(params).Error
}

// ListAccepted returns the accepted-submission roster ordered by id.
func (s *gormStore) ListAccepted(ctx context.Context, conferenceID string) ([]model.Submission, error) {
	var submissions []model.Submission
	err := s.db.WithContext(ctx).Where("conference_id = ?", conferenceID).Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for conference %s: %w", conferenceID, err)
	}

	accepted := submissions[:0]
	for _, sub := range submissions {
		if strings.EqualFold(sub.Status, "accepted") {
			accepted = append(accepted, sub)
		}
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].ID < accepted[j].ID })
	return accepted, nil
}

// UpsertSubmissions inserts or refreshes roster rows in one batch.
func (s *gormStore) UpsertSubmissions(ctx context.Context, submissions []model.Submission) error {
	if len(submissions) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"conference_id", "title", "status", "author_ids", "updated_at"}),
	}).Create(&submissions).Error
}

func (s *gormStore) CreateNotifications(ctx context.Context, records []model.NotificationRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&records).Error
}

func (s *gormStore) UpdateNotification(ctx context.Context, record *model.NotificationRecord) error {
	return s.db.WithContext(ctx).Save(record).Error
}

// ListFailedNotifications returns failed records of the given type in
// creation order; sent records are never included.
func (s *gormStore) ListFailedNotifications(ctx context.Context, notificationType string) ([]model.NotificationRecord, error) {
	var records []model.NotificationRecord
	err := s.db.WithContext(ctx).
		Where("type = ? AND status = ?", notificationType, model.NotificationStatusFailed).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list failed notifications: %w", err)
	}
	return records, nil
}

func (s *gormStore) CreateAuditEntry(ctx context.Context, entry *model.NotificationAuditEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}
