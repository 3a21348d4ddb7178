package schedule

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"conference-schedule-backend/internal/model"
)

// Store persists the conferenceId -> Schedule mapping. Save overwrites
// unconditionally; all concurrency policy lives in the Service so that the
// store stays infrastructure-dumb. Get returns (nil, nil) when no schedule
// exists for the conference.
type Store interface {
	GetSchedule(ctx context.Context, conferenceID string) (*model.Schedule, error)
	SaveSchedule(ctx context.Context, schedule *model.Schedule) error
}

// ParameterSource supplies the admin-configured scheduling parameters.
// A nil result without error means no parameters are configured yet.
type ParameterSource interface {
	GetParameters(ctx context.Context, conferenceID string) (*model.SchedulingParameters, error)
}

// Roster exposes the accepted-submission list for a conference, ordered by id.
type Roster interface {
	ListAccepted(ctx context.Context, conferenceID string) ([]model.Submission, error)
}

// conferenceLocks serializes mutating operations per conference so that two
// concurrent matching-token writes cannot both succeed.
type conferenceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (c *conferenceLocks) get(conferenceID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[conferenceID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[conferenceID] = l
	}
	return l
}

// Service drives the absent -> generated -> published schedule lifecycle and
// the optimistic-concurrency editing protocol on top of the Store.
type Service struct {
	store  Store
	params ParameterSource
	roster Roster
	locks  conferenceLocks
	now    func() time.Time
	newID  func() string
}

// NewService wires the schedule service dependencies.
func NewService(store Store, params ParameterSource, roster Roster) *Service {
	return &Service{
		store:  store,
		params: params,
		roster: roster,
		locks:  conferenceLocks{locks: make(map[string]*sync.Mutex)},
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// versionToken renders a schedule version as the opaque token editors carry.
func versionToken(version int64) string {
	return strconv.FormatInt(version, 10)
}

// VersionToken returns the current edit token for a schedule.
func VersionToken(s *model.Schedule) string {
	return versionToken(s.Version)
}

// Generate runs the slot builder and assignment generator and persists a
// brand-new schedule, replacing any prior one wholesale. Replacement of an
// existing schedule must be confirmed explicitly or the call fails with
// confirm_replace_required and changes nothing.
func (s *Service) Generate(ctx context.Context, conferenceID string, confirmReplace bool, createdBy string) (*model.Schedule, error) {
	lock := s.locks.get(conferenceID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.store.GetSchedule(ctx, conferenceID)
	if err != nil {
		log.Error().Err(err).Str("conference_id", conferenceID).Msg("schedule read failed during generate")
		return nil, newError(CodeSaveFailed)
	}
	if existing != nil && !confirmReplace {
		return nil, newError(CodeConfirmReplaceRequired)
	}

	params, err := s.params.GetParameters(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	units, err := BuildCapacityUnits(params)
	if err != nil {
		return nil, err
	}

	submissions, err := s.roster.ListAccepted(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	items, err := AssignSubmissions(submissions, units)
	if err != nil {
		return nil, err
	}

	// The version continues past the replaced schedule's so that a token
	// issued before regeneration can never match again; such edits classify
	// as STALE_EDIT.
	version := int64(1)
	if existing != nil {
		version = existing.Version + 1
	}

	schedule := &model.Schedule{
		ID:           s.newID(),
		ConferenceID: conferenceID,
		CreatedBy:    createdBy,
		CreatedAt:    s.now(),
		Status:       model.ScheduleStatusGenerated,
		Version:      version,
		Items:        items,
	}
	for i := range schedule.Items {
		schedule.Items[i].ScheduleID = schedule.ID
	}

	if err := s.store.SaveSchedule(ctx, schedule); err != nil {
		log.Error().Err(err).Str("conference_id", conferenceID).Msg("schedule save failed during generate")
		return nil, newError(CodeSaveFailed)
	}

	log.Info().
		Str("conference_id", conferenceID).
		Str("schedule_id", schedule.ID).
		Int("sessions", len(items)).
		Msg("schedule generated")
	return schedule, nil
}

// GetSchedule returns the current schedule for a conference.
func (s *Service) GetSchedule(ctx context.Context, conferenceID string) (*model.Schedule, error) {
	schedule, err := s.store.GetSchedule(ctx, conferenceID)
	if err != nil {
		return nil, &Error{Code: CodeRetrievalFailed, Retryable: true}
	}
	if schedule == nil {
		return nil, newError(CodeScheduleNotFound)
	}
	return schedule, nil
}

// GetItem returns a single schedule item by id.
func (s *Service) GetItem(ctx context.Context, conferenceID, itemID string) (*model.ScheduleItem, error) {
	schedule, err := s.GetSchedule(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	for i := range schedule.Items {
		if schedule.Items[i].ID == itemID {
			return &schedule.Items[i], nil
		}
	}
	return nil, newError(CodeItemNotFound)
}

// UpdateItemRequest carries an editor's requested move for one item.
// LastUpdatedAt is the version token the editor read earlier.
type UpdateItemRequest struct {
	RoomID        string
	TimeSlotID    string
	LastUpdatedAt string
}

// UpdateItem applies a room/time-slot move under the optimistic-concurrency
// protocol. A missing or mismatched token is STALE_EDIT: the caller's context
// is outdated. A valid token whose requested target collides with a different
// item is CONFLICT: the data changed under the editor's feet. Both leave the
// schedule completely unmutated.
func (s *Service) UpdateItem(ctx context.Context, conferenceID, itemID string, req UpdateItemRequest) (*model.Schedule, error) {
	lock := s.locks.get(conferenceID)
	lock.Lock()
	defer lock.Unlock()

	schedule, err := s.store.GetSchedule(ctx, conferenceID)
	if err != nil {
		log.Error().Err(err).Str("conference_id", conferenceID).Msg("schedule read failed during item update")
		return nil, newError(CodeItemSaveFailed)
	}
	if schedule == nil {
		return nil, newError(CodeScheduleNotFound)
	}

	if req.LastUpdatedAt == "" || req.LastUpdatedAt != versionToken(schedule.Version) {
		return nil, newError(CodeStaleEdit)
	}

	target := -1
	for i := range schedule.Items {
		if schedule.Items[i].ID == itemID {
			target = i
			continue
		}
		if schedule.Items[i].RoomID == req.RoomID && schedule.Items[i].TimeSlotID == req.TimeSlotID {
			return nil, newError(CodeConflict)
		}
	}
	if target < 0 {
		return nil, newError(CodeItemNotFound)
	}

	schedule.Items[target].RoomID = req.RoomID
	schedule.Items[target].TimeSlotID = req.TimeSlotID
	schedule.Version++

	if err := s.store.SaveSchedule(ctx, schedule); err != nil {
		log.Error().Err(err).Str("conference_id", conferenceID).Str("item_id", itemID).Msg("schedule save failed during item update")
		return nil, newError(CodeItemSaveFailed)
	}
	return schedule, nil
}

// Publish transitions a generated schedule to published. The transition is
// one-way and single-shot: publishing an already-published schedule is an
// error, not an idempotent success, so a fan-out can never silently run twice.
func (s *Service) Publish(ctx context.Context, conferenceID, publishedBy string) (*model.Schedule, error) {
	lock := s.locks.get(conferenceID)
	lock.Lock()
	defer lock.Unlock()

	schedule, err := s.store.GetSchedule(ctx, conferenceID)
	if err != nil {
		log.Error().Err(err).Str("conference_id", conferenceID).Msg("schedule read failed during publish")
		return nil, newError(CodeSaveFailed)
	}
	if schedule == nil {
		return nil, newError(CodePublishTargetNotFound)
	}
	if schedule.Status == model.ScheduleStatusPublished {
		return nil, newError(CodeAlreadyPublished)
	}

	now := s.now()
	schedule.Status = model.ScheduleStatusPublished
	schedule.PublishedAt = &now
	schedule.PublishedBy = publishedBy
	schedule.Version++

	if err := s.store.SaveSchedule(ctx, schedule); err != nil {
		log.Error().Err(err).Str("conference_id", conferenceID).Msg("schedule save failed during publish")
		return nil, newError(CodeSaveFailed)
	}

	log.Info().
		Str("conference_id", conferenceID).
		Str("published_by", publishedBy).
		Time("published_at", now).
		Msg("schedule published")
	return schedule, nil
}

// IsSchedulePublished reports whether a published schedule exists for the
// conference. Absent schedules count as unpublished.
func (s *Service) IsSchedulePublished(ctx context.Context, conferenceID string) (bool, error) {
	schedule, err := s.store.GetSchedule(ctx, conferenceID)
	if err != nil {
		return false, &Error{Code: CodeRetrievalFailed, Retryable: true}
	}
	return schedule != nil && schedule.Status == model.ScheduleStatusPublished, nil
}

// EnsurePublished returns a not_published error when no published schedule
// exists; downstream author-facing endpoints use it to gate visibility.
func (s *Service) EnsurePublished(ctx context.Context, conferenceID string) error {
	published, err := s.IsSchedulePublished(ctx, conferenceID)
	if err != nil {
		return err
	}
	if !published {
		return newError(CodeNotPublished)
	}
	return nil
}
