package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conference-schedule-backend/internal/model"
)

type fakeNotificationStore struct {
	mu         sync.Mutex
	records    map[string]model.NotificationRecord
	createFail bool
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{records: make(map[string]model.NotificationRecord)}
}

func (f *fakeNotificationStore) CreateNotifications(ctx context.Context, records []model.NotificationRecord) error {
	if f.createFail {
		return errors.New("insert failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		f.records[r.ID] = r
	}
	return nil
}

func (f *fakeNotificationStore) UpdateNotification(ctx context.Context, record *model.NotificationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.ID] = *record
	return nil
}

func (f *fakeNotificationStore) ListFailedNotifications(ctx context.Context, notificationType string) ([]model.NotificationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.NotificationRecord
	for _, r := range f.records {
		if r.Type == notificationType && r.Status == model.NotificationStatusFailed {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeFanoutRoster struct {
	submissions []model.Submission
	err         error
}

func (f *fakeFanoutRoster) ListAccepted(ctx context.Context, conferenceID string) ([]model.Submission, error) {
	return f.submissions, f.err
}

// flakySender fails sends addressed to authors listed in failFor.
type flakySender struct {
	mu      sync.Mutex
	failFor map[string]error
	sent    []Email
}

func (s *flakySender) Send(ctx context.Context, email Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[email.To]; ok {
		return err
	}
	s.sent = append(s.sent, email)
	return nil
}

type recordingAudit struct {
	mu       sync.Mutex
	failures []Failure
	err      error
}

func (a *recordingAudit) LogNotificationFailure(ctx context.Context, failure Failure) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, failure)
	return a.err
}

func newTestFanout(store Store, roster Roster, sender Sender, audit AuditLog) *Fanout {
	f := NewFanout(store, roster, sender, audit, 2)
	seq := 0
	var mu sync.Mutex
	f.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("rec-%d", seq)
	}
	f.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestFanout_Enqueue(t *testing.T) {
	ctx := context.Background()
	publishedAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	t.Run("one record per author per submission per channel", func(t *testing.T) {
		store := newFakeNotificationStore()
		roster := &fakeFanoutRoster{submissions: []model.Submission{
			{ID: "P1", AuthorIDs: []string{"a1", "a2"}},
			{ID: "P2", AuthorIDs: []string{"a1"}},
		}}
		f := newTestFanout(store, roster, &flakySender{}, &recordingAudit{})

		records, err := f.Enqueue(ctx, "conf-1", publishedAt, "Europe/Berlin")
		require.NoError(t, err)

		// 3 (author, submission) pairs x 2 channels.
		require.Len(t, records, 6)
		assert.Len(t, store.records, 6)

		byChannel := make(map[string]int)
		for _, r := range records {
			byChannel[r.Channel]++
			assert.Equal(t, model.NotificationStatusPending, r.Status)
			assert.Equal(t, model.NotificationTypeFinalSchedule, r.Type)
			assert.Equal(t, "Europe/Berlin", r.Timezone)
			assert.True(t, r.PublishedAt.Equal(publishedAt))
		}
		assert.Equal(t, 3, byChannel[model.ChannelEmail])
		assert.Equal(t, 3, byChannel[model.ChannelInApp])
	})

	t.Run("duplicate and empty author ids collapse", func(t *testing.T) {
		store := newFakeNotificationStore()
		roster := &fakeFanoutRoster{submissions: []model.Submission{
			{ID: "P1", AuthorIDs: []string{"a1", "a1", "", "a1"}},
		}}
		f := newTestFanout(store, roster, &flakySender{}, &recordingAudit{})

		records, err := f.Enqueue(ctx, "conf-1", publishedAt, "UTC")
		require.NoError(t, err)
		require.Len(t, records, 2)
		for _, r := range records {
			assert.Equal(t, "a1", r.AuthorID)
		}
	})

	t.Run("roster failure propagates", func(t *testing.T) {
		roster := &fakeFanoutRoster{err: errors.New("upstream down")}
		f := newTestFanout(newFakeNotificationStore(), roster, &flakySender{}, &recordingAudit{})

		_, err := f.Enqueue(ctx, "conf-1", publishedAt, "UTC")
		require.Error(t, err)
	})

	t.Run("persistence failure propagates", func(t *testing.T) {
		store := newFakeNotificationStore()
		store.createFail = true
		roster := &fakeFanoutRoster{submissions: []model.Submission{{ID: "P1", AuthorIDs: []string{"a1"}}}}
		f := newTestFanout(store, roster, &flakySender{}, &recordingAudit{})

		_, err := f.Enqueue(ctx, "conf-1", publishedAt, "UTC")
		require.Error(t, err)
	})
}

func TestFanout_DispatchEmail(t *testing.T) {
	ctx := context.Background()
	record := model.NotificationRecord{
		ID:           "rec-1",
		Type:         model.NotificationTypeFinalSchedule,
		Channel:      model.ChannelEmail,
		ConferenceID: "conf-1",
		AuthorID:     "a1",
		PaperID:      "P1",
		PublishedAt:  time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		Timezone:     "UTC",
		Status:       model.NotificationStatusPending,
	}

	t.Run("success marks sent", func(t *testing.T) {
		store := newFakeNotificationStore()
		sender := &flakySender{}
		f := newTestFanout(store, &fakeFanoutRoster{}, sender, &recordingAudit{})

		r := record
		assert.True(t, f.DispatchEmail(ctx, &r))
		assert.Equal(t, model.NotificationStatusSent, r.Status)
		assert.Equal(t, 0, r.RetryCount)
		assert.Equal(t, model.NotificationStatusSent, store.records["rec-1"].Status)

		require.Len(t, sender.sent, 1)
		assert.Equal(t, "a1", sender.sent[0].To)
		assert.Contains(t, sender.sent[0].Body, "P1")
	})

	t.Run("failure captures reason and bumps retry count", func(t *testing.T) {
		store := newFakeNotificationStore()
		sender := &flakySender{failFor: map[string]error{"a1": errors.New("smtp timeout")}}
		f := newTestFanout(store, &fakeFanoutRoster{}, sender, &recordingAudit{})

		r := record
		assert.False(t, f.DispatchEmail(ctx, &r))
		assert.Equal(t, model.NotificationStatusFailed, r.Status)
		assert.Equal(t, 1, r.RetryCount)
		assert.Equal(t, "smtp timeout", r.FailureReason)
		assert.Equal(t, model.NotificationStatusFailed, store.records["rec-1"].Status)
	})

	t.Run("empty failure message falls back to a stable reason", func(t *testing.T) {
		sender := &flakySender{failFor: map[string]error{"a1": errors.New("")}}
		f := newTestFanout(newFakeNotificationStore(), &fakeFanoutRoster{}, sender, &recordingAudit{})

		r := record
		assert.False(t, f.DispatchEmail(ctx, &r))
		assert.Equal(t, "notification_failed", r.FailureReason)
	})

	t.Run("unknown timezone falls back to UTC", func(t *testing.T) {
		f := newTestFanout(newFakeNotificationStore(), &fakeFanoutRoster{}, &flakySender{}, &recordingAudit{})
		r := record
		r.Timezone = "Not/AZone"
		email := f.buildEmail(&r)
		assert.Contains(t, email.Body, "2026-09-01 12:00 UTC")
	})
}

func TestFanout_DispatchAll(t *testing.T) {
	ctx := context.Background()
	publishedAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	store := newFakeNotificationStore()
	roster := &fakeFanoutRoster{submissions: []model.Submission{
		{ID: "P1", AuthorIDs: []string{"a1"}},
		{ID: "P2", AuthorIDs: []string{"a2"}},
		{ID: "P3", AuthorIDs: []string{"a3"}},
	}}
	sender := &flakySender{failFor: map[string]error{"a2": errors.New("mailbox full")}}
	audit := &recordingAudit{}
	f := newTestFanout(store, roster, sender, audit)

	records, err := f.Enqueue(ctx, "conf-1", publishedAt, "UTC")
	require.NoError(t, err)

	attempted, failed := f.DispatchAll(ctx, records)

	// Only the email channel is dispatched; in_app records stay pending.
	assert.Equal(t, 3, attempted)
	assert.Equal(t, 1, failed)

	statuses := make(map[string]int)
	for _, r := range store.records {
		statuses[r.Channel+"/"+r.Status]++
	}
	assert.Equal(t, 2, statuses[model.ChannelEmail+"/"+model.NotificationStatusSent])
	assert.Equal(t, 1, statuses[model.ChannelEmail+"/"+model.NotificationStatusFailed])
	assert.Equal(t, 3, statuses[model.ChannelInApp+"/"+model.NotificationStatusPending])

	// One audit entry per failed dispatch.
	require.Len(t, audit.failures, 1)
	assert.Equal(t, "a2", audit.failures[0].AuthorID)
	assert.Equal(t, "P2", audit.failures[0].PaperID)
	assert.Equal(t, "mailbox full", audit.failures[0].Reason)
}

func TestFanout_DispatchAll_NoEmailRecords(t *testing.T) {
	f := newTestFanout(newFakeNotificationStore(), &fakeFanoutRoster{}, &flakySender{}, &recordingAudit{})
	attempted, failed := f.DispatchAll(context.Background(), []model.NotificationRecord{
		{ID: "rec-1", Channel: model.ChannelInApp},
	})
	assert.Zero(t, attempted)
	assert.Zero(t, failed)
}

func TestFanout_RetryFailedFinalScheduleNotifications(t *testing.T) {
	ctx := context.Background()
	publishedAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	store := newFakeNotificationStore()
	roster := &fakeFanoutRoster{submissions: []model.Submission{
		{ID: "P1", AuthorIDs: []string{"a1"}},
		{ID: "P2", AuthorIDs: []string{"a2"}},
	}}
	sender := &flakySender{failFor: map[string]error{
		"a1": errors.New("relay down"),
		"a2": errors.New("relay down"),
	}}
	audit := &recordingAudit{}
	f := newTestFanout(store, roster, sender, audit)

	records, err := f.Enqueue(ctx, "conf-1", publishedAt, "UTC")
	require.NoError(t, err)
	attempted, failed := f.DispatchAll(ctx, records)
	assert.Equal(t, 2, attempted)
	assert.Equal(t, 2, failed)

	// Relay recovers for one author only.
	sender.mu.Lock()
	delete(sender.failFor, "a1")
	sender.mu.Unlock()

	attempted, failed, err = f.RetryFailedFinalScheduleNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, attempted)
	assert.Equal(t, 1, failed)

	// A second retry only picks up the record still failed.
	attempted, _, err = f.RetryFailedFinalScheduleNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, attempted)

	retried := 0
	for _, r := range store.records {
		if r.Channel == model.ChannelEmail && r.Status == model.NotificationStatusFailed {
			assert.GreaterOrEqual(t, r.RetryCount, 2)
			retried++
		}
	}
	assert.Equal(t, 1, retried)
}
