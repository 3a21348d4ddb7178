package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"conference-schedule-backend/internal/model"
)

// fallbackFailureReason is recorded when the transport fails without a reason.
const fallbackFailureReason = "notification_failed"

// Store is the persistence slice the fan-out needs.
type Store interface {
	CreateNotifications(ctx context.Context, records []model.NotificationRecord) error
	UpdateNotification(ctx context.Context, record *model.NotificationRecord) error
	ListFailedNotifications(ctx context.Context, notificationType string) ([]model.NotificationRecord, error)
}

// Roster exposes the accepted-submission list for a conference.
type Roster interface {
	ListAccepted(ctx context.Context, conferenceID string) ([]model.Submission, error)
}

// Failure describes one failed dispatch for the audit-log collaborator.
type Failure struct {
	ConferenceID string
	AuthorID     string
	PaperID      string
	Reason       string
}

// AuditLog is the fire-and-forget audit collaborator. Errors from it are
// logged, never propagated.
type AuditLog interface {
	LogNotificationFailure(ctx context.Context, failure Failure) error
}

// Fanout derives per-author notification records at publish time and
// dispatches the email channel with per-record failure capture. A failed
// dispatch never fails the publish that triggered it.
type Fanout struct {
	store   Store
	roster  Roster
	sender  Sender
	audit   AuditLog
	workers int
	newID   func() string
	now     func() time.Time
}

// NewFanout wires the fan-out dependencies. workers bounds dispatch
// concurrency during a publish.
func NewFanout(store Store, roster Roster, sender Sender, audit AuditLog, workers int) *Fanout {
	if workers <= 0 {
		workers = 1
	}
	return &Fanout{
		store:   store,
		roster:  roster,
		sender:  sender,
		audit:   audit,
		workers: workers,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Enqueue creates one pending NotificationRecord per (author, submission,
// channel) for the email and in_app channels. Duplicate author ids within a
// submission collapse to one notification per author per submission.
func (f *Fanout) Enqueue(ctx context.Context, conferenceID string, publishedAt time.Time, timezone string) ([]model.NotificationRecord, error) {
	submissions, err := f.roster.ListAccepted(ctx, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to read accepted-submission roster: %w", err)
	}

	channels := []string{model.ChannelEmail, model.ChannelInApp}
	now := f.now()

	var records []model.NotificationRecord
	for _, sub := range submissions {
		seen := make(map[string]bool, len(sub.AuthorIDs))
		for _, authorID := range sub.AuthorIDs {
			if authorID == "" || seen[authorID] {
				continue
			}
			seen[authorID] = true
			for _, channel := range channels {
				records = append(records, model.NotificationRecord{
					ID:           f.newID(),
					Type:         model.NotificationTypeFinalSchedule,
					Channel:      channel,
					ConferenceID: conferenceID,
					AuthorID:     authorID,
					PaperID:      sub.ID,
					PublishedAt:  publishedAt,
					Timezone:     timezone,
					Status:       model.NotificationStatusPending,
					CreatedAt:    now,
					UpdatedAt:    now,
				})
			}
		}
	}

	if err := f.store.CreateNotifications(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to persist notification records: %w", err)
	}
	log.Info().Str("conference_id", conferenceID).Int("records", len(records)).Msg("notifications enqueued")
	return records, nil
}

// buildEmail renders the author-facing message for one record.
func (f *Fanout) buildEmail(record *model.NotificationRecord) Email {
	loc, err := time.LoadLocation(record.Timezone)
	if err != nil {
		loc = time.UTC
	}
	publishedAt := record.PublishedAt.In(loc).Format("2006-01-02 15:04 MST")
	return Email{
		To:      record.AuthorID,
		Subject: fmt.Sprintf("Final schedule published for conference %s", record.ConferenceID),
		Body: fmt.Sprintf(
			"The final schedule for conference %s was published at %s.\nYour paper %s has been assigned a session.\n",
			record.ConferenceID, publishedAt, record.PaperID),
	}
}

// DispatchEmail attempts delivery for one record, mutating it in place and
// persisting the outcome. Reports whether the send succeeded; transport
// failures are captured on the record, never returned.
func (f *Fanout) DispatchEmail(ctx context.Context, record *model.NotificationRecord) bool {
	err := f.sender.Send(ctx, f.buildEmail(record))
	record.UpdatedAt = f.now()

	if err == nil {
		record.Status = model.NotificationStatusSent
		if uerr := f.store.UpdateNotification(ctx, record); uerr != nil {
			log.Error().Err(uerr).Str("record_id", record.ID).Msg("failed to persist sent notification status")
		}
		return true
	}

	record.RetryCount++
	record.Status = model.NotificationStatusFailed
	reason := err.Error()
	if reason == "" {
		reason = fallbackFailureReason
	}
	record.FailureReason = reason
	if uerr := f.store.UpdateNotification(ctx, record); uerr != nil {
		log.Error().Err(uerr).Str("record_id", record.ID).Msg("failed to persist failed notification status")
	}

	log.Warn().
		Str("record_id", record.ID).
		Str("author_id", record.AuthorID).
		Str("reason", reason).
		Msg("notification dispatch failed")
	return false
}

// DispatchAll sends every email-channel record through a bounded worker pool
// and reports each failure to the audit log. It returns only once every
// attempted send has resolved, so the enclosing publish response reflects
// all outcomes. Returns the attempted and failed counts.
func (f *Fanout) DispatchAll(ctx context.Context, records []model.NotificationRecord) (attempted, failed int) {
	var emailIdx []int
	for i := range records {
		if records[i].Channel == model.ChannelEmail {
			emailIdx = append(emailIdx, i)
		}
	}
	if len(emailIdx) == 0 {
		return 0, 0
	}

	jobs := make(chan int, len(emailIdx))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for w := 0; w < f.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if !f.DispatchEmail(ctx, &records[idx]) {
					mu.Lock()
					failed++
					mu.Unlock()
					f.reportFailure(ctx, &records[idx])
				}
			}
		}()
	}

	for _, idx := range emailIdx {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return len(emailIdx), failed
}

// reportFailure hands one failed dispatch to the audit collaborator.
// Audit failures are logged, never thrown.
func (f *Fanout) reportFailure(ctx context.Context, record *model.NotificationRecord) {
	err := f.audit.LogNotificationFailure(ctx, Failure{
		ConferenceID: record.ConferenceID,
		AuthorID:     record.AuthorID,
		PaperID:      record.PaperID,
		Reason:       record.FailureReason,
	})
	if err != nil {
		log.Error().Err(err).Str("record_id", record.ID).Msg("audit log write failed")
	}
}

// RetryFailedFinalScheduleNotifications re-dispatches every failed
// final_schedule record. Safe to call repeatedly; sent records are never
// retried because only failed ones are read back.
func (f *Fanout) RetryFailedFinalScheduleNotifications(ctx context.Context) (attempted, failed int, err error) {
	records, err := f.store.ListFailedNotifications(ctx, model.NotificationTypeFinalSchedule)
	if err != nil {
		return 0, 0, err
	}
	attempted, failed = f.DispatchAll(ctx, records)
	log.Info().Int("attempted", attempted).Int("failed", failed).Msg("notification retry batch complete")
	return attempted, failed, nil
}
